package tokenauth

import "strings"

// ExtractToken returns the bare token from either a bare value or a
// scheme-prefixed value such as "Bearer <token>".
//
// Surrounding whitespace is trimmed, then the value is split on single
// spaces and the second segment is taken. The scheme word before the space
// is not checked: "Token abc" and "Bearer abc" both yield "abc".
// An empty input, or an empty segment after the scheme, fails with a
// *ValidationError.
func ExtractToken(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationErr(ErrTokenRequired)
	}
	if !strings.Contains(value, " ") {
		return value, nil
	}

	// TODO: confirm with product whether unknown schemes should be rejected.
	segments := strings.Split(value, " ")
	token := segments[1]
	if token == "" {
		return "", validationErr(ErrTokenRequired)
	}
	return token, nil
}
