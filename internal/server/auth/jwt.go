// Package auth verifies the bearer tokens presented to the HTTP API.
// Tokens are issued elsewhere; this package only checks them.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gallerysync/internal/common"
)

// Claims carries the standard claims plus the numeric UserID. Tokens that
// only set the subject claim are accepted as well, with sub holding the id.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"UserID,omitempty"`
}

// GenerateToken signs an HS256 token for userID. The server never issues
// tokens itself; this exists for tooling and tests.
func GenerateToken(userID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken validates an HS256 token and returns the user id it
// carries. Every failure matches common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, common.ErrInvalidToken
	}

	if claims.UserID > 0 {
		return claims.UserID, nil
	}
	if claims.UserID < 0 {
		return 0, fmt.Errorf("%w: invalid user id", common.ErrInvalidToken)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: no user id claim", common.ErrInvalidToken)
	}
	return id, nil
}
