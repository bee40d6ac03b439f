// Package password verifies raw passwords against stored one-way hashes.
//
// # Supported formats
//
// Argon2id hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes use the usual $2a$, $2b$ or $2y$ prefix. [Auto] picks the
// scheme from the prefix, so a user table may hold both.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other tokenauth package.
//   - Log plaintext passwords.
package password
