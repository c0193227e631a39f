package httpapi

import (
	"context"
	"io"
	"net/http"

	"scoreshelf/internal/app/catalog"
	"scoreshelf/internal/auth"
	"scoreshelf/internal/store"
)

// UserService captures the account and session operations needed by the
// HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (store.Session, error)
	Session(ctx context.Context, token string) (store.Session, error)
	Logout(ctx context.Context, token string) error
}

// CatalogService coordinates composition workflows.
type CatalogService interface {
	List(ctx context.Context, filter store.Filter) ([]store.CompositionSummary, error)
	Get(ctx context.Context, id int64) (store.CompositionDetail, error)
	Create(ctx context.Context, ownerID int64, upload catalog.Upload) (int64, error)
	Delete(ctx context.Context, userID int64, filename string) error
	OpenFile(ctx context.Context, filename string) (io.ReadCloser, error)
}

// RatingsService records per-user ratings on both axes.
type RatingsService interface {
	Rate(ctx context.Context, compositionID, userID int64, value int) error
	RateDifficulty(ctx context.Context, compositionID, userID int64, value int) error
}

// NotesService stores notes with tag extraction.
type NotesService interface {
	Add(ctx context.Context, compositionID, userID int64, text string) error
}

// Renderer turns a page name and its data into a document. The default
// implementation uses embedded html/template files.
type Renderer interface {
	Render(w io.Writer, page string, data any) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users    UserService
	catalog  CatalogService
	ratings  RatingsService
	notes    NotesService
	tokens   *auth.TokenManager
	renderer Renderer
}

// New configures a Server with the given service implementations.
func New(users UserService, catalog CatalogService, ratings RatingsService, notes NotesService, tokens *auth.TokenManager, renderer Renderer) *Server {
	if renderer == nil {
		renderer = NewHTMLRenderer()
	}
	return &Server{
		users:    users,
		catalog:  catalog,
		ratings:  ratings,
		notes:    notes,
		tokens:   tokens,
		renderer: renderer,
	}
}

// Routes exposes the site's HTTP handlers. Every handler sees the request
// only after the session middleware has resolved the cookie into a
// per-request identity.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /composition/{id}", s.handleComposition)
	mux.HandleFunc("GET /files/{filename}", s.handleFile)
	mux.HandleFunc("GET /guide", s.handleGuide)

	mux.HandleFunc("GET /upload", s.handleUploadPage)
	mux.HandleFunc("POST /uploader", s.handleUpload)
	mux.HandleFunc("POST /delete/{filename}", s.handleDelete)

	mux.HandleFunc("POST /rate", s.handleRate)
	mux.HandleFunc("POST /rate_difficulty", s.handleRateDifficulty)
	mux.HandleFunc("POST /notes/{id}", s.handleNotes)

	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signuper", s.handleSignup)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	return s.withSession(mux)
}

func (s *Server) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, page, data); err != nil {
		logRenderError(page, err)
	}
}

// redirectFlash sends the user to path with a one-shot message shown on the
// next page render.
func redirectFlash(w http.ResponseWriter, r *http.Request, path, message string) {
	if message != "" {
		setFlash(w, message)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
