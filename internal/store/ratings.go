package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func validateRatingValue(value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

func (s *Store) compositionExists(ctx context.Context, id int64) error {
	var exists int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM compositions
		WHERE id = $1
	`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCompositionNotFound
		}
		return fmt.Errorf("lookup composition: %w", err)
	}
	return nil
}

// UpsertRating sets or replaces the user's rating for one composition.
// The unique constraint on (user_id, composition_id) keeps it to a single
// row per pair; resubmitting updates in place.
func (s *Store) UpsertRating(ctx context.Context, compositionID, userID int64, value int) error {
	if err := validateRatingValue(value); err != nil {
		return err
	}
	if err := s.compositionExists(ctx, compositionID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (composition_id, user_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, composition_id)
		DO UPDATE SET rating = EXCLUDED.rating
	`, compositionID, userID, value); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// UpsertDifficultyRating is the difficulty-axis counterpart of UpsertRating.
func (s *Store) UpsertDifficultyRating(ctx context.Context, compositionID, userID int64, value int) error {
	if err := validateRatingValue(value); err != nil {
		return err
	}
	if err := s.compositionExists(ctx, compositionID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO difficulty_ratings (composition_id, user_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, composition_id)
		DO UPDATE SET rating = EXCLUDED.rating
	`, compositionID, userID, value); err != nil {
		return fmt.Errorf("upsert difficulty rating: %w", err)
	}
	return nil
}
