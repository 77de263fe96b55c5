// Package auth implements credential primitives: adaptive password hashing
// with bcrypt and HMAC-signed JWT issuance/verification. It is deliberately
// free of storage and transport concerns so both the service layer and the
// HTTP middleware can depend on it.
package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor used when the caller passes a cost
// outside bcrypt's supported range.
const DefaultBcryptCost = 12

// HashPassword hashes a plain password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches the stored bcrypt hash.
func ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
