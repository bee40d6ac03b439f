package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

const (
	// TokenFormatRandom is 32 crypto/rand bytes, base64url without padding.
	TokenFormatRandom = "random"
	// TokenFormatUUID is a version 4 UUID string.
	TokenFormatUUID = "uuid"
)

const opaqueTokenSize = 32

// NewOpaqueToken returns a fresh unguessable token identifier in format.
// An empty format selects TokenFormatRandom.
func NewOpaqueToken(format string) (string, error) {
	switch format {
	case TokenFormatRandom, "":
		var raw [opaqueTokenSize]byte
		if _, err := rand.Read(raw[:]); err != nil {
			return "", err
		}
		return base64.RawURLEncoding.EncodeToString(raw[:]), nil
	case TokenFormatUUID:
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	default:
		return "", fmt.Errorf("unknown token format %q", format)
	}
}

// ValidTokenFormat reports whether format is accepted by NewOpaqueToken.
func ValidTokenFormat(format string) bool {
	switch format {
	case TokenFormatRandom, TokenFormatUUID, "":
		return true
	}
	return false
}
