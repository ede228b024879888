package auth

import (
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity extracted from a validated token. Subject is the
// user id history records are attributed to.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Raw       map[string]any
}

func (c *Claims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// Validator validates bearer tokens. An empty token means the request
// carried no credentials; validators that require one must reject it.
type Validator interface {
	Validate(token string) (*Claims, error)
}
