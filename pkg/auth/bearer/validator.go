package bearer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/auth"
)

// Config configures JWT validation for tokens issued by the hosted auth
// backend. Secret enables HS256; JwksURL enables RS256. At least one is required.
type Config struct {
	Secret             string `json:"secret,omitempty"`
	JwksURL            string `json:"jwksUrl,omitempty"`
	Issuer             string `json:"issuer,omitempty"`
	Audience           string `json:"audience,omitempty"`
	ClockSkewSeconds   int    `json:"clockSkewSeconds,omitempty"`
	HTTPTimeoutSeconds int    `json:"httpTimeoutSeconds,omitempty"`
}

// Validator validates signed JWTs.
type Validator struct {
	secret    []byte
	keys      *keySet
	issuer    string
	audience  string
	clockSkew time.Duration
}

func NewValidator(cfg Config) (*Validator, error) {
	cfg.Secret = strings.TrimSpace(cfg.Secret)
	cfg.JwksURL = strings.TrimSpace(cfg.JwksURL)
	if cfg.Secret == "" && cfg.JwksURL == "" {
		return nil, errors.New("jwt auth: secret or jwksUrl is required")
	}
	v := &Validator{
		issuer:    strings.TrimSpace(cfg.Issuer),
		audience:  strings.TrimSpace(cfg.Audience),
		clockSkew: time.Duration(cfg.ClockSkewSeconds) * time.Second,
	}
	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
	}
	if cfg.JwksURL != "" {
		timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		v.keys = newKeySet(cfg.JwksURL, &http.Client{Timeout: timeout})
	}
	return v, nil
}

func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	var cfg Config
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("jwt auth: invalid config: %w", err)
		}
	}
	return NewValidator(cfg)
}

func (v *Validator) methods() []string {
	var out []string
	if v.secret != nil {
		out = append(out, jwt.SigningMethodHS256.Alg())
	}
	if v.keys != nil {
		out = append(out, jwt.SigningMethodRS256.Alg())
	}
	return out
}

func (v *Validator) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid in token header")
		}
		return v.keys.key(kid)
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// Validate checks signature, expiry, issuer and audience.
func (v *Validator) Validate(tokenString string) (*auth.Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, auth.ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods()),
		jwt.WithLeeway(v.clockSkew),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, auth.ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", auth.ErrInvalidToken)
	}
	iss, _ := claims.GetIssuer()
	aud, _ := claims.GetAudience()
	out := &auth.Claims{
		Subject:  sub,
		Email:    stringClaim(claims, "email"),
		Issuer:   iss,
		Audience: []string(aud),
		Raw:      claims,
	}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, _ := claims.GetIssuedAt(); iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

func init() {
	auth.RegisterProvider("jwt", NewValidatorFromJSON)
}
