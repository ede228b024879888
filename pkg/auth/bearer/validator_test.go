package bearer

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/auth"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func hsToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestHS256Validator(t *testing.T) {
	v, err := NewValidator(Config{Secret: testSecret, Audience: "authenticated"})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	now := time.Now()
	token := hsToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "rep@example.com",
		"aud":   "authenticated",
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
	})

	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID() != "user-42" || claims.Email != "rep@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "authenticated" {
		t.Fatalf("audience = %v", claims.Audience)
	}
	if claims.ExpiresAt.Unix() != now.Add(time.Hour).Unix() {
		t.Fatalf("expires = %v", claims.ExpiresAt)
	}
}

func TestHS256ValidatorRejects(t *testing.T) {
	v, _ := NewValidator(Config{Secret: testSecret, Issuer: "https://auth.example.com", Audience: "authenticated"})
	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "user-42",
			"iss": "https://auth.example.com",
			"aud": "authenticated",
			"exp": now.Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"empty", func() string { return "" }},
		{"expired", func() string {
			c := base()
			c["exp"] = now.Add(-time.Hour).Unix()
			return hsToken(t, c)
		}},
		{"wrong issuer", func() string {
			c := base()
			c["iss"] = "https://evil.example.com"
			return hsToken(t, c)
		}},
		{"wrong audience", func() string {
			c := base()
			c["aud"] = "anon"
			return hsToken(t, c)
		}},
		{"missing subject", func() string {
			c := base()
			delete(c, "sub")
			return hsToken(t, c)
		}},
		{"wrong secret", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, base()).SignedString([]byte("other-secret"))
			return s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Validate(tt.token()); !errors.Is(err, auth.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestRS256ValidatorWithJWKS(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	fetches := 0
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{
				"kty": "RSA",
				"kid": "key-1",
				"n":   base64.RawURLEncoding.EncodeToString(privKey.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
			}},
		})
	}))
	defer jwksServer.Close()

	v, err := NewValidator(Config{JwksURL: jwksServer.URL, ClockSkewSeconds: 30})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"sub": "rsa-user", "exp": time.Now().Add(time.Hour).Unix()})
	tok.Header["kid"] = "key-1"
	signed, err := tok.SignedString(privKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for i := 0; i < 2; i++ {
		claims, err := v.Validate(signed)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if claims.UserID() != "rsa-user" {
			t.Fatalf("subject = %q", claims.Subject)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected cached keys, fetched %d times", fetches)
	}

	// HS256 tokens are not accepted when only JWKS is configured.
	if _, err := v.Validate(hsToken(t, jwt.MapClaims{"sub": "x"})); err == nil {
		t.Fatal("expected HS256 token to be rejected")
	}
}

func TestNewValidatorFromJSON(t *testing.T) {
	if _, err := NewValidatorFromJSON(json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error without secret or jwksUrl")
	}
	v, err := auth.NewValidator(auth.ProviderConfig{Type: "jwt", Config: json.RawMessage(`{"secret":"` + testSecret + `"}`)})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	if _, err := v.Validate(hsToken(t, jwt.MapClaims{"sub": "u"})); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
