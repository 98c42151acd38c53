package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller profile supplied by the identity provider.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// DisplayName joins first and last name, falling back to the email.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// AccessTokenClaims is the JWT body issued by the identity provider. The
// subject claim carries the user id.
type AccessTokenClaims struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the profile used by handlers.
func (c AccessTokenClaims) Identity() Identity {
	return Identity{
		UserID:    c.Subject,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}
