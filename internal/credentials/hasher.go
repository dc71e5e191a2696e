// Package credentials provides one-way salted password hashing.
package credentials

import "golang.org/x/crypto/bcrypt"

// saltWorkFactor is the bcrypt cost. Raising it slows hashing for new
// passwords only; existing hashes keep the cost they were created with.
const saltWorkFactor = 12

// HashPassword hashes a plaintext password with bcrypt. Callers must not
// pass an empty plaintext: OAuth-only identities keep an empty hash, and
// hashing "" would obscure that state.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), saltWorkFactor)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
