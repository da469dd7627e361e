// Package auth issues and checks the bearer tokens that guard the HTTP API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenService struct {
	Secret   []byte
	Issuer   string
	Duration time.Duration
}

// Claims identify an API client. Sync marks clients allowed to write sheets.
type Claims struct {
	Client string `json:"client"`
	Sync   bool   `json:"sync"`
	jwt.RegisteredClaims
}

// Enabled reports whether a secret is configured.
func (ts TokenService) Enabled() bool { return len(ts.Secret) > 0 }

func (ts TokenService) Sign(client string, sync bool) (string, time.Time, error) {
	if !ts.Enabled() {
		return "", time.Time{}, errors.New("sign token: no secret configured")
	}
	now := time.Now()
	exp := now.Add(ts.Duration)

	claims := Claims{
		Client: client,
		Sync:   sync,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.Issuer,
			Subject:   client,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(ts.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

func (ts TokenService) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if ts.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.Issuer))
	}
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return ts.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
