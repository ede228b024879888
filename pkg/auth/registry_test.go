package auth

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
)

// fixedValidator accepts one token and reports a fixed subject.
type fixedValidator struct {
	token   string
	subject string
}

func (v fixedValidator) Validate(token string) (*Claims, error) {
	if token != v.token {
		return nil, ErrInvalidToken
	}
	return &Claims{Subject: v.subject}, nil
}

func registerFixed(t *testing.T, name string) {
	t.Helper()
	RegisterProvider(name, func(raw json.RawMessage) (Validator, error) {
		var cfg struct {
			Token   string `json:"token"`
			Subject string `json:"subject"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return fixedValidator{token: cfg.Token, subject: cfg.Subject}, nil
	})
}

func TestNewValidatorUsesRegisteredFactory(t *testing.T) {
	registerFixed(t, "fixed")

	if !slices.Contains(ListProviders(), "fixed") {
		t.Fatalf("fixed missing from %v", ListProviders())
	}

	v, err := NewValidator(ProviderConfig{Type: " Fixed ", Config: json.RawMessage(`{"token":"t-1","subject":"alice"}`)})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	claims, err := v.Validate("t-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID() != "alice" {
		t.Errorf("user id = %q", claims.UserID())
	}
	if _, err := v.Validate("other"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewValidatorFactoryError(t *testing.T) {
	registerFixed(t, "fixed-bad")

	_, err := NewValidator(ProviderConfig{Type: "fixed-bad", Config: json.RawMessage(`not json`)})
	if err == nil || !strings.Contains(err.Error(), "auth provider fixed-bad") {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}
}

func TestNewValidatorUnknownProvider(t *testing.T) {
	registerFixed(t, "fixed")

	_, err := NewValidator(ProviderConfig{Type: "saml"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "fixed") {
		t.Errorf("error should list registered providers: %v", err)
	}
}

func TestClaimsUserIDNil(t *testing.T) {
	var c *Claims
	if c.UserID() != "" {
		t.Error("nil claims should have no user id")
	}
}
