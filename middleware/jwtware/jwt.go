// Package jwtware provides a Fiber middleware that authenticates
// requests with bearer tokens issued by the accounts token service.
package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
)

var (
	// ErrJWTMissingOrMalformed is returned when no usable token is in
	// the request.
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

	defaultContextKey = "auth_claims"
	defaultAuthScheme = "Bearer"
)

// TokenValidator mirrors the accounts.TokenService validation method
// so callers can plug alternative verifiers.
type TokenValidator interface {
	Validate(tokenString string) (*accounts.JWTClaims, error)
}

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after a token validates; defaults to Next.
	SuccessHandler fiber.Handler
	// ErrorHandler maps validation failures to responses.
	ErrorHandler fiber.ErrorHandler
	// ContextKey is where validated claims are stored in locals.
	ContextKey string
	// AuthScheme is the expected Authorization scheme.
	AuthScheme string
	// TokenValidator is required for token validation.
	TokenValidator TokenValidator
}

// New builds the middleware. It panics without a TokenValidator since
// the route set would otherwise be silently unprotected.
func New(config ...Config) fiber.Handler {
	cfg := makeConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := tokenFromHeader(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		return cfg.SuccessHandler(c)
	}
}

// ClaimsFromContext retrieves validated claims stored by the
// middleware, using the default context key.
func ClaimsFromContext(c *fiber.Ctx) (*accounts.JWTClaims, bool) {
	return ClaimsFromContextKey(c, defaultContextKey)
}

// ClaimsFromContextKey retrieves validated claims under a custom key.
func ClaimsFromContextKey(c *fiber.Ctx, key string) (*accounts.JWTClaims, bool) {
	claims, ok := c.Locals(key).(*accounts.JWTClaims)
	return claims, ok
}

func makeConfig(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("jwtware: TokenValidator is required")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = defaultContextKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = defaultAuthScheme
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrJWTMissingOrMalformed) {
				return c.Status(fiber.StatusBadRequest).SendString(ErrJWTMissingOrMalformed.Error())
			}
			return c.Status(fiber.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	return cfg
}

func tokenFromHeader(c *fiber.Ctx, authScheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	l := len(authScheme)
	if len(header) <= l+1 || !strings.EqualFold(header[:l], authScheme) || header[l] != ' ' {
		return "", ErrJWTMissingOrMalformed
	}

	return strings.TrimSpace(header[l+1:]), nil
}
