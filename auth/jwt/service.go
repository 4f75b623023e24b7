// Package jwt mints and verifies the HS256 bearer tokens of the bridge.
//
// A token may be bound to one session; the bridge then refuses commands and
// event streams for any other session:
//
//	svc, _ := jwt.NewService(&cfg)
//	token, _ := svc.Generate("tab-1")
//	claims, err := svc.Parse(token)
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims are the bridge token claims.
type Claims struct {
	gojwt.RegisteredClaims
	// Session restricts the token to one session. Empty allows any.
	Session string `json:"session,omitempty"`
}

// Allows reports whether the claims permit access to session.
func (c *Claims) Allows(session string) bool {
	return c.Session == "" || c.Session == session
}

// Service generates and parses tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService applies defaults to cfg and validates it. cfg.Secret must be set.
func NewService(cfg *Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, errors.New("jwt: secret is required")
	}
	return &Service{cfg: *cfg, now: time.Now}, nil
}

// Generate signs a token for subject session ("" for an unrestricted token)
// valid for the configured TTL.
func (s *Service) Generate(session string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Session: session,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, the time claims and the issuer.
func (s *Service) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(s.cfg.Issuer),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	return claims, nil
}

// Validate adapts Parse to the auth middleware's validator signature.
func (s *Service) Validate(token string) (any, error) {
	return s.Parse(token)
}

func (s *Service) keyFunc(token *gojwt.Token) (any, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}
