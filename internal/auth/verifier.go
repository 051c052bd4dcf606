// Package auth validates the bearer credential presented at connection
// time. Issuing credentials belongs to the identity service; this side
// only needs to turn a token into a stable user id, exactly once per
// connection attempt.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avdeyev/linkup/internal/domain"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
)

// Verifier yields a verified user id from a bearer credential.
type Verifier interface {
	Verify(credential string) (domain.UserID, error)
}

// Claims is the payload the identity service signs into each token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 tokens signed with a shared secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) Verify(credential string) (domain.UserID, error) {
	if credential == "" {
		return "", ErrMissingCredential
	}
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(ErrInvalidCredential, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidCredential
	}
	return domain.UserID(claims.UserID), nil
}

// Issue signs a token for uid. The server itself never issues tokens
// at runtime; this exists for tooling and tests.
func Issue(secret string, uid domain.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: string(uid),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "linkup",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
