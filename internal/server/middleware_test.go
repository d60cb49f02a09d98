package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/lectures/internal/shared"
)

func TestIPLimiter(t *testing.T) {
	t.Run("allows burst then blocks", func(t *testing.T) {
		l := NewIPLimiter(3)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		for i := range 3 {
			if !l.Allow("10.0.0.1") {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		if l.Allow("10.0.0.1") {
			t.Error("fourth request should be blocked")
		}
		if !l.Allow("10.0.0.2") {
			t.Error("other clients have their own bucket")
		}

		now = now.Add(21 * time.Second)
		if !l.Allow("10.0.0.1") {
			t.Error("a token should refill after 21s at 3/min")
		}
	})

	t.Run("check reports rate limiting as an error", func(t *testing.T) {
		l := NewIPLimiter(1)
		if err := l.Check("10.0.0.1"); err != nil {
			t.Fatalf("first request: %v", err)
		}
		if err := l.Check("10.0.0.1"); !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("second request err = %v, want ErrRateLimited", err)
		}
	})

	t.Run("middleware logs the limit error", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewIPLimiter(1)
		h := l.Middleware(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for range 2 {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = "10.0.0.9:5000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
				t.Error("429 should carry Retry-After")
			}
		}
		if !strings.Contains(buf.String(), shared.ErrRateLimited.Error()) {
			t.Errorf("log = %q, want %q", buf.String(), shared.ErrRateLimited)
		}
	})

	t.Run("idle visitors are forgotten", func(t *testing.T) {
		l := NewIPLimiter(1)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		l.Allow("10.0.0.1")
		now = now.Add(visitorIdle + time.Second)
		l.Allow("10.0.0.2")

		if _, ok := l.visitors["10.0.0.1"]; ok {
			t.Error("idle visitor should have been swept")
		}
	})

	t.Run("non-positive rate uses default", func(t *testing.T) {
		if l := NewIPLimiter(0); l.burst != defaultLoginRate {
			t.Errorf("burst = %d, want %d", l.burst, defaultLoginRate)
		}
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := clientIP(req); got != "192.0.2.7" {
		t.Errorf("clientIP() = %q, want 192.0.2.7", got)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Error("empty context should have no principal")
	}

	ctx := WithPrincipal(context.Background(), &Principal{UserID: 7, Username: "admin"})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.UserID != 7 || p.Username != "admin" {
		t.Errorf("PrincipalFrom() = %+v, %v", p, ok)
	}

	if _, err := RequirePrincipal(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("RequirePrincipal() err = %v, want ErrNotAuthenticated", err)
	}
	if p, err := RequirePrincipal(ctx); err != nil || p.UserID != 7 {
		t.Errorf("RequirePrincipal() = %+v, %v", p, err)
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("group middleware is scoped", func(t *testing.T) {
		r := NewBasicRouter()
		mark := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Marked", "yes")
				next.ServeHTTP(w, req)
			})
		}
		ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

		r.HandleFunc(http.MethodGet, "/open", ok)
		r.Group(func(g Router) {
			g.Use(mark)
			g.HandleFunc(http.MethodGet, "/marked", ok)
		})

		for path, want := range map[string]string{"/open": "", "/marked": "yes"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if got := rec.Header().Get("X-Marked"); got != want {
				t.Errorf("%s: X-Marked = %q, want %q", path, got, want)
			}
		}
	})

	t.Run("url params", func(t *testing.T) {
		r := NewBasicRouter()
		var got string
		r.Route("/items", func(sub Router) {
			sub.HandleFunc(http.MethodGet, "/{id}", func(w http.ResponseWriter, req *http.Request) {
				got = URLParam(req, "id")
			})
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
		if got != "42" {
			t.Errorf("URLParam() = %q, want 42", got)
		}
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("matching password rejected")
	}
	if CheckPassword(hash, "other") {
		t.Error("wrong password accepted")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("empty password should be rejected")
	}
}
