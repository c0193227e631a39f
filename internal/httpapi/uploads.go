package httpapi

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"scoreshelf/internal/app/catalog"
	"scoreshelf/internal/store"
)

// maxUploadBytes bounds multipart parsing for sheet-music PDFs.
const maxUploadBytes = 32 << 20

type uploadPageData struct {
	Session sessionView
	Flash   string
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		redirectFlash(w, r, "/", "please log in to upload")
		return
	}
	s.render(w, "upload", uploadPageData{
		Session: viewOf(sess, true),
		Flash:   popFlash(w, r),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		redirectFlash(w, r, "/upload", "invalid upload form")
		return
	}

	sess, ok := s.requireCSRF(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		redirectFlash(w, r, "/upload", "No file part")
		return
	}
	defer file.Close()

	values, err := requiredFormValues(r, "title", "composer", "genre", "notation", "instrumentcount", "difficulty", "rating")
	if err != nil {
		redirectFlash(w, r, "/upload", err.Error())
		return
	}

	instrumentCount, err := formInt(values, "instrumentcount")
	if err != nil {
		redirectFlash(w, r, "/upload", err.Error())
		return
	}
	difficulty, err := formInt(values, "difficulty")
	if err != nil {
		redirectFlash(w, r, "/upload", err.Error())
		return
	}
	rating, err := formInt(values, "rating")
	if err != nil {
		redirectFlash(w, r, "/upload", err.Error())
		return
	}

	_, err = s.catalog.Create(r.Context(), sess.UserID, catalog.Upload{
		Title:           values["title"],
		Composer:        values["composer"],
		Genre:           values["genre"],
		Notation:        values["notation"],
		InstrumentCount: instrumentCount,
		Rating:          rating,
		Difficulty:      difficulty,
		Filename:        header.Filename,
		Content:         file,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrUnsupportedFile) {
			redirectFlash(w, r, "/upload", "Unsupported filetype")
			return
		}
		log.Error().Err(err).Msg("upload failed")
		redirectFlash(w, r, "/upload", "upload failed, please try again")
		return
	}

	redirectFlash(w, r, "/", "File uploaded successfully")
}

// handleDelete removes an upload. The catalog service deletes the blob
// before the row so a partial failure never leaves a dangling catalog entry.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireCSRF(w, r)
	if !ok {
		return
	}

	filename := r.PathValue("filename")
	if err := s.catalog.Delete(r.Context(), sess.UserID, filename); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotOwner):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, store.ErrCompositionNotFound):
			redirectFlash(w, r, "/", "unknown composition")
		default:
			log.Error().Err(err).Str("filename", filename).Msg("delete failed")
			redirectFlash(w, r, "/", "delete failed, please try again")
		}
		return
	}

	redirectFlash(w, r, "/", "Composition deleted")
}
