package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/desertthunder/lectures/internal/tasks"
	"github.com/desertthunder/lectures/internal/web"
)

// lectureForm is the data behind lecture.html.
type lectureForm struct {
	ID       int64
	Title    string
	URL      string
	TopicIDs []int64
	TagIDs   []int64
	RankID   *int64
	Choices  *tasks.Choices
}

// metadataSection is one kind's block on metadata.html.
type metadataSection struct {
	Kind  models.TaxonomyKind
	Label string
	Terms []*models.Term
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := PrincipalFrom(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", &web.Page{Title: "Log in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in := LoginInput{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	page := &web.Page{Title: "Log in", Data: in}

	if err := models.ValidateStruct(&in); err != nil {
		page.Errors = models.FieldErrors(err)
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	user, err := Authenticate(r.Context(), s.users, in.Username, in.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			s.logger.Warn("failed login", "username", in.Username, "ip", clientIP(r))
		} else {
			s.logger.Error("login lookup failed", "username", in.Username, "error", err)
		}
		page.Flashes = []string{"Invalid username or password"}
		s.render(w, r, http.StatusUnauthorized, "login.html", page)
		return
	}

	if err := s.sessions.Login(w, r, user); err != nil {
		s.logger.Error("failed to save session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.logger.Info("logged in", "username", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseLectureInput reads the lecture form. Malformed ids are rejected.
func parseLectureInput(r *http.Request) (tasks.LectureInput, error) {
	var in tasks.LectureInput
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	in.Title = r.PostFormValue("title")
	in.URL = r.PostFormValue("youtube_url")

	var err error
	if in.TopicIDs, err = formIDs(r, "topics"); err != nil {
		return in, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if in.TagIDs, err = formIDs(r, "tags"); err != nil {
		return in, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if in.RankID, err = formID(r, "rank"); err != nil {
		return in, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return in, nil
}

// renderLectureForm shows lecture.html with form, loading the selection choices.
func (s *Server) renderLectureForm(w http.ResponseWriter, r *http.Request, status int, form *lectureForm, page *web.Page) {
	choices, err := s.taxonomy.Choices(r.Context())
	if err != nil {
		s.logger.Error("failed to load form choices", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	form.Choices = choices
	page.Data = form
	if page.Title == "" {
		page.Title = "Add lecture"
		if form.ID != 0 {
			page.Title = "Edit lecture"
		}
	}
	s.render(w, r, status, "lecture.html", page)
}

// lectureFailure maps a create or update error onto the re-shown form.
func lectureFailure(err error, action string) (int, *web.Page) {
	page := &web.Page{}
	switch {
	case models.FieldErrors(err) != nil:
		page.Errors = models.FieldErrors(err)
		return http.StatusUnprocessableEntity, page
	case errors.Is(err, shared.ErrInvalidInput):
		page.Flashes = []string{"Please check the submitted values."}
		return http.StatusBadRequest, page
	case errors.Is(err, shared.ErrConflict):
		page.Flashes = []string{"That video is already in the catalog."}
		return http.StatusConflict, page
	case errors.Is(err, shared.ErrUnresolvableURL), errors.Is(err, shared.ErrLookupFailed):
		page.Flashes = []string{fmt.Sprintf("Error %s lecture. Please check the YouTube URL.", action)}
		return http.StatusUnprocessableEntity, page
	default:
		page.Flashes = []string{fmt.Sprintf("Error %s lecture. Please try again.", action)}
		return http.StatusInternalServerError, page
	}
}

func formFromInput(id int64, in tasks.LectureInput) *lectureForm {
	return &lectureForm{
		ID:       id,
		Title:    in.Title,
		URL:      in.URL,
		TopicIDs: in.TopicIDs,
		TagIDs:   in.TagIDs,
		RankID:   in.RankID,
	}
}

func (s *Server) handleNewLecturePage(w http.ResponseWriter, r *http.Request) {
	s.renderLectureForm(w, r, http.StatusOK, &lectureForm{}, &web.Page{})
}

func (s *Server) handleCreateLecture(w http.ResponseWriter, r *http.Request) {
	in, err := parseLectureInput(r)
	if err == nil {
		_, err = s.lectures.Create(r.Context(), in)
	}
	if err != nil {
		s.logger.Error("add lecture failed", "url", in.URL, "error", err)
		status, page := lectureFailure(err, "adding")
		s.renderLectureForm(w, r, status, formFromInput(0, in), page)
		return
	}
	s.redirect(w, r, "/", "Lecture added successfully!")
}

// lectureID parses the {id} path segment; anything but a positive integer is a 404.
func lectureID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleEditLecturePage(w http.ResponseWriter, r *http.Request) {
	id, ok := lectureID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	lecture, err := s.lectures.Get(r.Context(), id)
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("failed to load lecture", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	form := &lectureForm{
		ID:       lecture.ID,
		Title:    lecture.Title,
		URL:      lecture.ShortURL(),
		TopicIDs: lecture.TopicIDs,
		TagIDs:   lecture.TagIDs,
		RankID:   lecture.RankID,
	}
	s.renderLectureForm(w, r, http.StatusOK, form, &web.Page{})
}

func (s *Server) handleUpdateLecture(w http.ResponseWriter, r *http.Request) {
	id, ok := lectureID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	in, err := parseLectureInput(r)
	if err == nil {
		_, err = s.lectures.Update(r.Context(), id, in)
	}
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("update lecture failed", "id", id, "error", err)
		status, page := lectureFailure(err, "updating")
		s.renderLectureForm(w, r, status, formFromInput(id, in), page)
		return
	}
	s.redirect(w, r, "/", "Lecture updated successfully!")
}

func (s *Server) renderMetadata(w http.ResponseWriter, r *http.Request, status int, errs map[string]string) {
	sections := make([]metadataSection, 0, len(models.TaxonomyKinds))
	for _, kind := range models.TaxonomyKinds {
		terms, err := s.taxonomy.List(r.Context(), kind)
		if err != nil {
			s.logger.Error("failed to list terms", "kind", kind, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		sections = append(sections, metadataSection{Kind: kind, Label: kind.Label(), Terms: terms})
	}
	s.render(w, r, status, "metadata.html", &web.Page{Title: "Metadata", Errors: errs, Data: sections})
}

func (s *Server) handleMetadataPage(w http.ResponseWriter, r *http.Request) {
	s.renderMetadata(w, r, http.StatusOK, nil)
}

// handleCreateTerm adds one topic, tag or rank. Duplicates are reported next to the kind's form.
func (s *Server) handleCreateTerm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	kind, err := models.ParseTaxonomyKind(r.PostFormValue("kind"))
	if err != nil {
		s.logger.Warn("unknown taxonomy kind", "kind", r.PostFormValue("kind"))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	term, err := s.taxonomy.Create(r.Context(), kind, r.PostFormValue("name"))
	if err == nil {
		s.redirect(w, r, "/admin/metadata", fmt.Sprintf("%s %q added.", kind.Label(), term.Name))
		return
	}

	s.logger.Error("add term failed", "kind", kind, "error", err)
	errs := map[string]string{}
	status := http.StatusInternalServerError
	switch {
	case models.FieldErrors(err) != nil:
		errs[string(kind)] = models.FieldErrors(err)["name"]
		status = http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrConflict):
		errs[string(kind)] = fmt.Sprintf("%s %q already exists.", kind.Label(), strings.TrimSpace(r.PostFormValue("name")))
		status = http.StatusConflict
	default:
		errs[string(kind)] = fmt.Sprintf("Could not add %s. Please try again.", kind)
	}
	s.renderMetadata(w, r, status, errs)
}
