package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/voicenote/errors"
)

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	// Secret is the HS256 signing key. An empty secret disables authentication.
	Secret string
	// Issuer, when set, must match the token's "iss" claim.
	Issuer string
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

type subjectKey struct{}

// Auth returns middleware that requires an HS256 "Authorization: Bearer"
// token signed with cfg.Secret. The token subject is stored in the request
// context and read back with Subject.
func Auth(cfg AuthConfig) Middleware {
	key := []byte(cfg.Secret)
	opts := []gojwt.ParserOption{gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	parser := gojwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		if cfg.Secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				WriteError(w, r, apperrors.Unauthorized("Authorization header required."))
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				WriteError(w, r, apperrors.Unauthorized("Invalid authorization header format."))
				return
			}

			claims := &gojwt.RegisteredClaims{}
			_, err := parser.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil {
				if errors.Is(err, gojwt.ErrTokenExpired) {
					WriteError(w, r, apperrors.TokenExpired())
					return
				}
				WriteError(w, r, apperrors.InvalidToken().WithCause(err))
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated token subject, or "" when the request
// was not authenticated.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

// SignToken issues an HS256 token for subject valid for ttl.
func SignToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
