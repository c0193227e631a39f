package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"scoreshelf/internal/store"
)

// handleRate records the logged-in user's rating for a composition.
// Resubmitting replaces that user's previous value and nothing else.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	s.submitRating(w, r, s.ratings.Rate)
}

func (s *Server) handleRateDifficulty(w http.ResponseWriter, r *http.Request) {
	s.submitRating(w, r, s.ratings.RateDifficulty)
}

func (s *Server) submitRating(w http.ResponseWriter, r *http.Request, submit func(ctx context.Context, compositionID, userID int64, value int) error) {
	sess, ok := s.requireCSRF(w, r)
	if !ok {
		return
	}

	values, err := requiredFormValues(r, "composition_id", "rating")
	if err != nil {
		redirectFlash(w, r, "/", err.Error())
		return
	}

	compositionID, err := strconv.ParseInt(values["composition_id"], 10, 64)
	if err != nil {
		redirectFlash(w, r, "/", "unknown composition")
		return
	}
	back := fmt.Sprintf("/composition/%d", compositionID)

	value, err := formInt(values, "rating")
	if err != nil {
		redirectFlash(w, r, back, err.Error())
		return
	}

	if err := submit(r.Context(), compositionID, sess.UserID, value); err != nil {
		if errors.Is(err, store.ErrCompositionNotFound) {
			redirectFlash(w, r, "/", "unknown composition")
			return
		}
		log.Error().Err(err).Int64("composition_id", compositionID).Msg("rating failed")
		redirectFlash(w, r, back, "could not save rating, please try again")
		return
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

// handleNotes stores a note on a composition; `#word` tokens become tags.
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireCSRF(w, r)
	if !ok {
		return
	}

	compositionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		redirectFlash(w, r, "/", "unknown composition")
		return
	}
	back := fmt.Sprintf("/composition/%d", compositionID)

	values, err := requiredFormValues(r, "notes")
	if err != nil {
		redirectFlash(w, r, back, "note text is required")
		return
	}

	if err := s.notes.Add(r.Context(), compositionID, sess.UserID, values["notes"]); err != nil {
		if errors.Is(err, store.ErrCompositionNotFound) {
			redirectFlash(w, r, "/", "unknown composition")
			return
		}
		log.Error().Err(err).Int64("composition_id", compositionID).Msg("note failed")
		redirectFlash(w, r, back, "could not save note, please try again")
		return
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}
