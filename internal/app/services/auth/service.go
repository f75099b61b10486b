// Package auth implements session issuance and validation. Sessions are
// stateless HS256 tokens signed with the configured auth secret; the TTL
// comes from the tier's auth settings.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/errors"
	"github.com/launchfoundry/appstack/pkg/logger"
)

// Claims are the session token claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Service mints and validates session tokens.
type Service struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	log        *logger.Logger
}

// New creates a session service from the composed config.
func New(cfg config.Config, log *logger.Logger) (*Service, error) {
	if cfg.Auth.Secret == "" && cfg.Tier() != config.TierDevelopment {
		return nil, fmt.Errorf("auth secret is required outside development")
	}
	secret := cfg.Auth.Secret
	if secret == "" {
		// Development fallback; production composition already enforced a
		// real secret.
		secret = "development-insecure-secret"
	}
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		secret:     []byte(secret),
		issuer:     cfg.App.Name,
		sessionTTL: cfg.Auth.SessionTTL,
		log:        log,
	}, nil
}

// Issue mints a session token for an identity.
func (s *Service) Issue(identity user.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns the identity it carries.
func (s *Service) Validate(tokenString string) (*user.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.InvalidToken(nil)
	}
	return &user.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

// FromRequest extracts and validates the bearer token from a request.
// A request without an Authorization header yields (nil, nil) so callers
// can distinguish "no session" from "bad session".
func (s *Service) FromRequest(r *http.Request) (*user.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.Unauthorized("invalid Authorization header format")
	}
	return s.Validate(parts[1])
}
