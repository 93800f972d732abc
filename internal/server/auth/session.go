package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/server/models"
)

// MinSecretLen is the minimum accepted HMAC secret length. Startup fails
// fast when the configured secret is shorter.
const MinSecretLen = 32

// SessionClaims is the payload of a session token. Validity derives solely
// from the signature and expiry; nothing is stored server-side, so a
// compromised token stays valid until natural expiry.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// GenerateSessionToken signs a session token for the account with an
// absolute expiry of now+validity.
func GenerateSessionToken(a *models.Account, secret []byte, validity time.Duration) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: a.ID,
		Email:  a.Email,
		Role:   a.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSessionToken verifies the signature and expiry of tokenString and
// returns its claims. Expiry is reported as common.ErrTokenExpired so the
// route guard can distinguish a stale session from a forged one; every other
// failure (bad signature, structural corruption, wrong algorithm) maps to
// common.ErrInvalidToken.
func ParseSessionToken(tokenString string, secret []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	// The jwt library only validates exp when the claim is present. A
	// well-signed token without one must not become a never-expiring
	// session, so the expiry is re-checked here.
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	return claims, nil
}
