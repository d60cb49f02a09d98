package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	principalKey
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

// Principal is the signed-in admin.
type Principal struct {
	UserID   int64
	Username string
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored by [LoadPrincipal], if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// RequirePrincipal is [PrincipalFrom] for callers that need a signed-in admin.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}
	return p, nil
}

// RequestIDFrom returns the id assigned by [RequestID], or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID tags every request with a random id, echoed in the X-Request-ID response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := shared.GenerateID()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestLogger logs one line per request with its status, size and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", RequestIDFrom(r.Context()),
			}
			switch {
			case status >= 500:
				logger.Error("request", kv...)
			case status >= 400:
				logger.Warn("request", kv...)
			default:
				logger.Info("request", kv...)
			}
		})
	}
}

// LoadPrincipal resolves the session's user and stores it in the request context.
//
// A session pointing at a user that no longer exists is treated as anonymous.
func LoadPrincipal(sessions *Sessions, users *repositories.UserRepository, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sessions.UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.Get(r.Context(), id)
			if err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					logger.Error("failed to load session user", "user_id", id, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithPrincipal(r.Context(), &Principal{UserID: user.ID, Username: user.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects anonymous requests to /login.
func RequireAuth(sessions *Sessions, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := RequirePrincipal(r.Context()); err != nil {
				logger.Debug("admin access denied", "path", r.URL.Path, "error", err)
				sessions.AddFlash(w, r, "Please log in to access this page.")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
