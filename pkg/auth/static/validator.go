package static

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/auth"
)

const defaultSubject = "dev-user"

type validatorConfig struct {
	// Token is the exact bearer token expected. Empty accepts any request,
	// including ones without credentials.
	Token string `json:"token,omitempty"`

	Subject string         `json:"subject,omitempty"`
	Email   string         `json:"email,omitempty"`
	Raw     map[string]any `json:"raw,omitempty"`
}

type validator struct {
	cfg validatorConfig
}

// NewValidatorFromJSON accepts an object config, a bare token string, or nothing.
func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	var cfg validatorConfig
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
	case trimmed[0] == '"':
		if err := json.Unmarshal([]byte(trimmed), &cfg.Token); err != nil {
			return nil, fmt.Errorf("static auth: invalid config: %w", err)
		}
	default:
		if err := json.Unmarshal([]byte(trimmed), &cfg); err != nil {
			return nil, fmt.Errorf("static auth: invalid config: %w", err)
		}
	}

	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.Subject = strings.TrimSpace(cfg.Subject)
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	if cfg.Raw == nil {
		cfg.Raw = map[string]any{}
	}
	return &validator{cfg: cfg}, nil
}

func (v *validator) Validate(token string) (*auth.Claims, error) {
	if v.cfg.Token != "" && strings.TrimSpace(token) != v.cfg.Token {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{
		Subject: v.cfg.Subject,
		Email:   v.cfg.Email,
		Issuer:  "static",
		Raw:     v.cfg.Raw,
	}, nil
}

func init() {
	auth.RegisterProvider("static", NewValidatorFromJSON)
}
