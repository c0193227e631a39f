package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"scoreshelf/internal/blob"
	"scoreshelf/internal/store"
)

type indexData struct {
	Session      sessionView
	Flash        string
	Count        int
	Compositions []store.CompositionSummary
}

type compositionData struct {
	Session     sessionView
	Flash       string
	Composition store.CompositionDetail
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderListing(w, r, store.Filter{})
}

// handleSearch narrows the catalog by the posted facets: title/composer/tag
// substrings plus inclusive bounds on the aggregate rating and difficulty.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Title:    r.FormValue("title"),
		Composer: r.FormValue("composer"),
		Tag:      r.FormValue("tag"),
	}

	bounds := []struct {
		field string
		dest  **float64
	}{
		{"min_rating", &filter.MinRating},
		{"max_rating", &filter.MaxRating},
		{"min_difficulty", &filter.MinDifficulty},
		{"max_difficulty", &filter.MaxDifficulty},
	}
	for _, b := range bounds {
		v, err := optionalFormFloat(r, b.field)
		if err != nil {
			redirectFlash(w, r, "/", err.Error())
			return
		}
		*b.dest = v
	}

	s.renderListing(w, r, filter)
}

func (s *Server) renderListing(w http.ResponseWriter, r *http.Request, filter store.Filter) {
	compositions, err := s.catalog.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("list compositions")
		http.Error(w, "service unavailable, please reload", http.StatusInternalServerError)
		return
	}

	sess, ok := sessionFrom(r.Context())
	s.render(w, "index", indexData{
		Session:      viewOf(sess, ok),
		Flash:        popFlash(w, r),
		Count:        len(compositions),
		Compositions: compositions,
	})
}

func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		redirectFlash(w, r, "/", "unknown composition")
		return
	}

	detail, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrCompositionNotFound) {
			redirectFlash(w, r, "/", "unknown composition")
			return
		}
		log.Error().Err(err).Int64("composition_id", id).Msg("get composition")
		http.Error(w, "service unavailable, please reload", http.StatusInternalServerError)
		return
	}

	sess, ok := sessionFrom(r.Context())
	s.render(w, "view", compositionData{
		Session:     viewOf(sess, ok),
		Flash:       popFlash(w, r),
		Composition: detail,
	})
}

// handleFile streams a stored PDF. Only keys registered in the catalog are
// served.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	rc, err := s.catalog.OpenFile(r.Context(), filename)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCompositionNotFound), errors.Is(err, blob.ErrNotFound):
			http.NotFound(w, r)
		default:
			log.Error().Err(err).Str("filename", filename).Msg("open file")
			http.Error(w, "service unavailable, please reload", http.StatusInternalServerError)
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, rc); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("stream file")
	}
}

type guidePageData struct {
	Session sessionView
	Flash   string
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	s.render(w, "guide", guidePageData{
		Session: viewOf(sess, ok),
		Flash:   popFlash(w, r),
	})
}
