package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Principal is the caller an access token speaks for.
type Principal struct {
	UserID    uuid.UUID
	Name      string
	TokenID   string
	ExpiresAt time.Time
}

// claims is the signed token body. The subject carries the user id.
type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *claims) principal() (Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil || userID == uuid.Nil {
		return Principal{}, ErrInvalidSubject
	}
	p := Principal{UserID: userID, Name: c.Name, TokenID: c.ID}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}
