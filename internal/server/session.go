package server

import (
	"net/http"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/gorilla/sessions"
)

const (
	sessionName   = "lectures_session"
	userIDKey     = "user_id"
	sessionMaxAge = 7 * 24 * 60 * 60
)

// Sessions stores the signed-in user id and one-shot flash messages in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions creates a cookie store signed with secret. secure marks cookies HTTPS-only.
func NewSessions(secret string, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// session returns the request's session. A cookie that fails to decode yields a fresh session.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

// Login records user as signed in.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	sess := s.session(r)
	sess.Values[userIDKey] = user.ID
	return sess.Save(r, w)
}

// Logout forgets the signed-in user but keeps pending flashes.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	delete(sess.Values, userIDKey)
	return sess.Save(r, w)
}

// UserID returns the signed-in user id.
func (s *Sessions) UserID(r *http.Request) (int64, bool) {
	id, ok := s.session(r).Values[userIDKey].(int64)
	return id, ok
}

// AddFlash queues a message for the next rendered page.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess := s.session(r)
	sess.AddFlash(msg)
	_ = sess.Save(r, w)
}

// Flashes drains queued messages.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess := s.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}
