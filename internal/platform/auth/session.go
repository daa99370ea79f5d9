package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/shopease/storefront/internal/domain"
)

const DefaultSessionCookie = "shopease_session"

type contextKey string

const sessionContextKey contextKey = "github.com/shopease/storefront/internal/platform/auth/session"

// sessionClaims is the signed cookie payload. Only the display name is
// carried; everything else comes from the registered claims.
type sessionClaims struct {
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// SessionProviderDeps wires the session provider dependencies.
type SessionProviderDeps struct {
	CookieName    string
	SigningSecret string
	Clock         func() time.Time
	Logger        *zap.Logger
}

// SessionProvider decodes the optional signed session cookie into a session
// snapshot. It never rejects a request: an absent, expired, or tampered
// cookie simply yields the anonymous session.
type SessionProvider struct {
	cookieName string
	secret     []byte
	clock      func() time.Time
	logger     *zap.Logger
}

// NewSessionProvider constructs the provider. An empty signing secret
// disables decoding entirely; every request is then anonymous.
func NewSessionProvider(deps SessionProviderDeps) *SessionProvider {
	cookieName := strings.TrimSpace(deps.CookieName)
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionProvider{
		cookieName: cookieName,
		secret:     []byte(deps.SigningSecret),
		clock:      clock,
		logger:     logger,
	}
}

// FromRequest resolves the session carried by the request cookie.
func (p *SessionProvider) FromRequest(r *http.Request) domain.Session {
	if len(p.secret) == 0 {
		return domain.Session{}
	}
	cookie, err := r.Cookie(p.cookieName)
	if err != nil || cookie.Value == "" {
		return domain.Session{}
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return p.secret, nil
		},
		jwt.WithTimeFunc(p.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		p.logger.Debug("session cookie rejected", zap.Error(err))
		return domain.Session{}
	}

	name := strings.TrimSpace(claims.DisplayName)
	if name == "" {
		return domain.Session{}
	}
	return domain.Session{
		Authenticated: true,
		User:          &domain.User{DisplayName: name},
	}
}

// Middleware resolves the session once per request and stores it on the
// context for handlers.
func (p *SessionProvider) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithSession(r.Context(), p.FromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession stores the session on the context.
func WithSession(ctx context.Context, session domain.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves the session, defaulting to anonymous.
func SessionFromContext(ctx context.Context) domain.Session {
	if ctx == nil {
		return domain.Session{}
	}
	if session, ok := ctx.Value(sessionContextKey).(domain.Session); ok {
		return session
	}
	return domain.Session{}
}
