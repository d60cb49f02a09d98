package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/desertthunder/lectures/internal/tasks"
	"github.com/desertthunder/lectures/internal/web"
)

// importResponse is the JSON body of a successful import.
type importResponse struct {
	Message string              `json:"message"`
	Result  *tasks.ImportResult `json:"result"`
}

func (s *Server) handleDataPage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to count catalog", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "data.html", &web.Page{Title: "Data", Data: stats})
}

// snapshotFilename names a downloaded snapshot after the moment it was taken.
func snapshotFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.json", prefix, t.UTC().Format("20060102-150405"))
}

func writeSnapshot(w http.ResponseWriter, filename string, snap *models.Snapshot) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Export(r.Context())
	if err != nil {
		s.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	writeSnapshot(w, snapshotFilename("lectures-export", time.Now()), snap)
}

// handleImport loads a snapshot uploaded as the multipart "file" field.
// Failures echo their detail so the admin can fix the document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.logger.Warn("import upload rejected", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	snap, err := tasks.ParseSnapshot(file)
	if err != nil {
		s.logger.Warn("import parse failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.catalog.Import(r.Context(), snap, nil)
	if err != nil {
		s.logger.Error("import failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, fmt.Sprintf("Import failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Message: result.String(), Result: result})
}

// handleReset wipes lectures and taxonomy and responds with what was there before.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Reset(r.Context())
	if err != nil {
		s.logger.Error("reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Reset failed")
		return
	}
	writeSnapshot(w, snapshotFilename("lectures-before-reset", time.Now()), snap)
}
