package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/lectures/internal/web"
)

// writeJSON writes data as a JSON response with status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": msg} with status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// render executes a page, filling in the principal and pending flashes.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, page *web.Page) {
	if p, ok := PrincipalFrom(r.Context()); ok {
		page.User = p.Username
	}
	page.Flashes = append(s.sessions.Flashes(w, r), page.Flashes...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderer.Render(w, name, page); err != nil {
		s.logger.Error("failed to render page", "page", name, "error", err)
	}
}

// redirect queues msg as a flash and sends the client to path.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, path, msg string) {
	if msg != "" {
		s.sessions.AddFlash(w, r, msg)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// formIDs parses every non-blank value of field as an integer id.
func formIDs(r *http.Request, field string) ([]int64, error) {
	var ids []int64
	for _, raw := range r.PostForm[field] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an id", field, raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// formID parses an optional single id; blank means none.
func formID(r *http.Request, field string) (*int64, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not an id", field, raw)
	}
	return &id, nil
}
