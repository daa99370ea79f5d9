package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func mintCookie(t *testing.T, secret, name string, expiresAt time.Time) *http.Cookie {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		DisplayName: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("unable to sign token: %v", err)
	}
	return &http.Cookie{Name: DefaultSessionCookie, Value: signed}
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestFromRequestAnonymousWithoutCookie(t *testing.T) {
	provider := NewSessionProvider(SessionProviderDeps{SigningSecret: testSecret})

	session := provider.FromRequest(requestWithCookie(nil))
	if session.Authenticated {
		t.Fatalf("expected anonymous session without a cookie")
	}
}

func TestFromRequestValidCookie(t *testing.T) {
	provider := NewSessionProvider(SessionProviderDeps{SigningSecret: testSecret})
	cookie := mintCookie(t, testSecret, "Priya", time.Now().Add(time.Hour))

	session := provider.FromRequest(requestWithCookie(cookie))
	if !session.Authenticated {
		t.Fatalf("expected authenticated session")
	}
	if session.User == nil || session.User.DisplayName != "Priya" {
		t.Fatalf("unexpected session user %+v", session.User)
	}
}

func TestFromRequestGarbageCookieDegradesToAnonymous(t *testing.T) {
	provider := NewSessionProvider(SessionProviderDeps{SigningSecret: testSecret})
	cookie := &http.Cookie{Name: DefaultSessionCookie, Value: "not-a-jwt"}

	session := provider.FromRequest(requestWithCookie(cookie))
	if session.Authenticated {
		t.Fatalf("expected garbage cookie to degrade to anonymous")
	}
}

func TestFromRequestWrongSecretRejected(t *testing.T) {
	provider := NewSessionProvider(SessionProviderDeps{SigningSecret: testSecret})
	cookie := mintCookie(t, "other-secret", "Mallory", time.Now().Add(time.Hour))

	session := provider.FromRequest(requestWithCookie(cookie))
	if session.Authenticated {
		t.Fatalf("expected tampered signature to degrade to anonymous")
	}
}

func TestFromRequestExpiredTokenRejected(t *testing.T) {
	now := time.Now()
	provider := NewSessionProvider(SessionProviderDeps{
		SigningSecret: testSecret,
		Clock:         func() time.Time { return now },
	})
	cookie := mintCookie(t, testSecret, "Priya", now.Add(-time.Minute))

	session := provider.FromRequest(requestWithCookie(cookie))
	if session.Authenticated {
		t.Fatalf("expected expired token to degrade to anonymous")
	}
}

func TestFromRequestDisabledWithoutSecret(t *testing.T) {
	provider := NewSessionProvider(SessionProviderDeps{})
	cookie := mintCookie(t, testSecret, "Priya", time.Now().Add(time.Hour))

	session := provider.FromRequest(requestWithCookie(cookie))
	if session.Authenticated {
		t.Fatalf("expected sign-in disabled when no secret is configured")
	}
}

func TestMiddlewareInjectsSession(t *testing.T) {
	provider := NewSessionProvider(SessionProviderDeps{SigningSecret: testSecret})
	cookie := mintCookie(t, testSecret, "Priya", time.Now().Add(time.Hour))

	var gotName string
	handler := provider.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := SessionFromContext(r.Context()).User; user != nil {
			gotName = user.DisplayName
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), requestWithCookie(cookie))

	if gotName != "Priya" {
		t.Fatalf("expected session on context, got %q", gotName)
	}
}

func TestSessionFromContextDefaultsToAnonymous(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if SessionFromContext(r.Context()).Authenticated {
		t.Fatalf("expected anonymous default")
	}
}
