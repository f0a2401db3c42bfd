package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shelfwatch-backend/pkg/config"
)

const clockSkew = 30 * time.Second

var (
	ErrMissingSecret  = errors.New("auth: jwt secret is required")
	ErrInvalidSubject = errors.New("auth: token subject is not a user id")
)

var signingMethod = jwt.SigningMethodHS256

// MintAccessToken signs an HS256 token for p valid for cfg.ExpirationMinutes from now.
// Shelfwatch does not issue tokens itself; this backs tooling and tests.
func MintAccessToken(cfg config.JWTConfig, now time.Time, p Principal) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", ErrMissingSecret
	case cfg.Issuer == "":
		return "", errors.New("auth: jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("auth: jwt expiration must be positive")
	case p.UserID == uuid.Nil:
		return "", ErrInvalidSubject
	}

	id := strings.TrimSpace(p.TokenID)
	if id == "" {
		id = uuid.NewString()
	}
	body := claims{
		Name: strings.TrimSpace(p.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   p.UserID.String(),
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, body).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the token's Principal.
// jwt sentinel errors such as jwt.ErrTokenExpired stay reachable through errors.Is.
func ParseAccessToken(cfg config.JWTConfig, token string) (Principal, error) {
	if cfg.Secret == "" {
		return Principal{}, ErrMissingSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	var body claims
	if _, err := parser.ParseWithClaims(token, &body, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return Principal{}, err
	}
	return body.principal()
}
