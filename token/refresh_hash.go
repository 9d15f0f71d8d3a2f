package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 digest stored in place of a refresh token.
func HashRefreshToken(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual compares a presented refresh token with a stored digest in constant time.
func RefreshTokenHashEqual(refreshToken, storedHash string) bool {
	presented := HashRefreshToken(refreshToken)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}
