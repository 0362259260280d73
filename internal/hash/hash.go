// Package hash wraps password hashing for stored credentials. Hashing is
// an explicit call on the create/update paths rather than a persistence
// hook, so there is no hidden control flow around "did the field change".
package hash

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

func Password(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A malformed digest fails
// closed: the answer is false, never an error.
func Verify(plain string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
