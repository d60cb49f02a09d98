package server

import (
	"net/http"

	"github.com/desertthunder/lectures/internal/search"
	"github.com/desertthunder/lectures/internal/web"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	lectures, err := s.engine.Recent(r.Context(), recentLectures)
	if err != nil {
		s.logger.Error("failed to load recent lectures", "error", err)
		s.render(w, r, http.StatusInternalServerError, "home.html", &web.Page{
			Flashes: []string{"Could not load lectures. Please try again later."},
		})
		return
	}
	s.render(w, r, http.StatusOK, "home.html", &web.Page{Data: lectures})
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	choices, err := s.taxonomy.Choices(r.Context())
	if err != nil {
		s.logger.Error("failed to load filter choices", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "search.html", &web.Page{Title: "Search", Data: choices})
}

// handleAPISearch serves one page of filtered lectures as JSON.
// Any failure is logged in full and answered with a generic 500.
func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	filter, err := search.ParseFilter(r.URL.Query())
	if err != nil {
		s.logger.Error("invalid search filter", "query", r.URL.RawQuery, "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while searching")
		return
	}

	page, err := s.engine.Search(r.Context(), filter)
	if err != nil {
		s.logger.Error("search failed", "query", r.URL.RawQuery, "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while searching")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
