package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tripnest/ms-go-session/config"
)

// AccessTokenIssuer mints and verifies the short-lived signed access tokens.
// Purely cryptographic; no persistence.
type AccessTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

func NewAccessTokenIssuer(cfg *config.Config) *AccessTokenIssuer {
	return &AccessTokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTAccessTokenTTL,
		leeway: cfg.JWTClockSkew,
	}
}

// Issue produces a compact HS256 token whose subject is the user's email.
func (i *AccessTokenIssuer) Issue(subjectEmail string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectEmail,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify returns the subject email, or ErrInvalidToken for anything
// malformed, badly signed, or expired beyond the configured clock skew.
func (i *AccessTokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithLeeway(i.leeway))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
