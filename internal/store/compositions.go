package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CompositionSummary is one catalog entry with its query-time aggregates.
// AvgRating and AvgDifficulty are nil when no one has rated the piece yet;
// such pieces still appear in listings.
type CompositionSummary struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Composer        string   `json:"composer"`
	Genre           string   `json:"genre"`
	Notation        string   `json:"notation"`
	InstrumentCount int      `json:"instrumentCount"`
	Filename        string   `json:"filename"`
	Views           int      `json:"views"`
	Uploader        string   `json:"uploader"`
	AvgRating       *float64 `json:"avgRating,omitempty"`
	AvgDifficulty   *float64 `json:"avgDifficulty,omitempty"`
	RatingCount     int      `json:"ratingCount"`
}

// Note is a free-text comment on a composition, tags already stripped.
type Note struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompositionDetail extends a summary with its tags and notes.
type CompositionDetail struct {
	CompositionSummary
	Tags  []string `json:"tags"`
	Notes []Note   `json:"notes"`
}

// NewComposition carries the metadata for an upload, including the
// uploader's initial rating and difficulty assessment.
type NewComposition struct {
	Title           string
	Composer        string
	Genre           string
	Notation        string
	InstrumentCount int
	Filename        string
	Rating          int
	Difficulty      int
}

// Filter narrows catalog listings. String fields match as case-insensitive
// substrings; range bounds are inclusive and apply to the aggregates.
type Filter struct {
	Title         string
	Composer      string
	Tag           string
	MinRating     *float64
	MaxRating     *float64
	MinDifficulty *float64
	MaxDifficulty *float64
}

func validateComposition(c NewComposition) error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(c.Composer) == "" {
		return fmt.Errorf("composer is required")
	}
	if c.InstrumentCount < 1 {
		return fmt.Errorf("instrument count must be at least 1")
	}
	if c.Filename == "" {
		return fmt.Errorf("filename is required")
	}
	if err := validateRatingValue(c.Rating); err != nil {
		return err
	}
	return validateRatingValue(c.Difficulty)
}

// listSelect joins each composition against per-composition aggregate
// subqueries. The joins must stay LEFT so pieces without ratings are listed.
const listSelect = `
	SELECT c.id, c.title, c.composer, c.genre, c.notation, c.instrument_count,
	       c.filename, c.views, u.username,
	       r.avg_rating, COALESCE(r.rating_count, 0), d.avg_difficulty
	FROM compositions c
	JOIN users u ON u.id = c.user_id
	LEFT JOIN (
		SELECT composition_id, AVG(rating) AS avg_rating, COUNT(*) AS rating_count
		FROM ratings
		GROUP BY composition_id
	) r ON r.composition_id = c.id
	LEFT JOIN (
		SELECT composition_id, AVG(rating) AS avg_difficulty
		FROM difficulty_ratings
		GROUP BY composition_id
	) d ON d.composition_id = c.id`

// ListCompositions returns catalog summaries matching the filter, newest
// first.
func (s *Store) ListCompositions(ctx context.Context, filter Filter) ([]CompositionSummary, error) {
	query := listSelect + `
	WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.Title != "" {
		query += fmt.Sprintf(" AND c.title ILIKE $%d", argIdx)
		args = append(args, "%"+filter.Title+"%")
		argIdx++
	}

	if filter.Composer != "" {
		query += fmt.Sprintf(" AND c.composer ILIKE $%d", argIdx)
		args = append(args, "%"+filter.Composer+"%")
		argIdx++
	}

	if filter.Tag != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM tags t WHERE t.composition_id = c.id AND t.tag ILIKE $%d)", argIdx)
		args = append(args, "%"+filter.Tag+"%")
		argIdx++
	}

	if filter.MinRating != nil {
		query += fmt.Sprintf(" AND r.avg_rating >= $%d", argIdx)
		args = append(args, *filter.MinRating)
		argIdx++
	}

	if filter.MaxRating != nil {
		query += fmt.Sprintf(" AND r.avg_rating <= $%d", argIdx)
		args = append(args, *filter.MaxRating)
		argIdx++
	}

	if filter.MinDifficulty != nil {
		query += fmt.Sprintf(" AND d.avg_difficulty >= $%d", argIdx)
		args = append(args, *filter.MinDifficulty)
		argIdx++
	}

	if filter.MaxDifficulty != nil {
		query += fmt.Sprintf(" AND d.avg_difficulty <= $%d", argIdx)
		args = append(args, *filter.MaxDifficulty)
		argIdx++
	}

	query += " ORDER BY c.id DESC LIMIT 200"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compositions: %w", err)
	}
	defer rows.Close()

	var summaries []CompositionSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compositions: %w", err)
	}

	return summaries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (CompositionSummary, error) {
	var (
		summary       CompositionSummary
		avgRating     sql.NullFloat64
		avgDifficulty sql.NullFloat64
	)

	if err := row.Scan(
		&summary.ID,
		&summary.Title,
		&summary.Composer,
		&summary.Genre,
		&summary.Notation,
		&summary.InstrumentCount,
		&summary.Filename,
		&summary.Views,
		&summary.Uploader,
		&avgRating,
		&summary.RatingCount,
		&avgDifficulty,
	); err != nil {
		return CompositionSummary{}, fmt.Errorf("scan composition: %w", err)
	}

	if avgRating.Valid {
		summary.AvgRating = &avgRating.Float64
	}
	if avgDifficulty.Valid {
		summary.AvgDifficulty = &avgDifficulty.Float64
	}
	return summary, nil
}

// GetComposition records one view and returns the joined detail. The
// increment is a single UPDATE statement so concurrent views never lose
// counts, and it shares a transaction with the read.
func (s *Store) GetComposition(ctx context.Context, id int64) (CompositionDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CompositionDetail{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE compositions
		SET views = views + 1
		WHERE id = $1
	`, id)
	if err != nil {
		return CompositionDetail{}, fmt.Errorf("increment views: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return CompositionDetail{}, fmt.Errorf("increment views: %w", err)
	} else if n == 0 {
		return CompositionDetail{}, ErrCompositionNotFound
	}

	var detail CompositionDetail
	row := tx.QueryRowContext(ctx, listSelect+`
	WHERE c.id = $1`, id)
	detail.CompositionSummary, err = scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CompositionDetail{}, ErrCompositionNotFound
		}
		return CompositionDetail{}, err
	}

	tagRows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT tag
		FROM tags
		WHERE composition_id = $1
		ORDER BY tag
	`, id)
	if err != nil {
		return CompositionDetail{}, fmt.Errorf("query tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return CompositionDetail{}, fmt.Errorf("scan tag: %w", err)
		}
		detail.Tags = append(detail.Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return CompositionDetail{}, fmt.Errorf("iterate tags: %w", err)
	}

	noteRows, err := tx.QueryContext(ctx, `
		SELECT u.username, n.note, n.created_at
		FROM notes n
		JOIN users u ON u.id = n.user_id
		WHERE n.composition_id = $1
		ORDER BY n.created_at DESC
	`, id)
	if err != nil {
		return CompositionDetail{}, fmt.Errorf("query notes: %w", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var note Note
		if err := noteRows.Scan(&note.Author, &note.Text, &note.CreatedAt); err != nil {
			return CompositionDetail{}, fmt.Errorf("scan note: %w", err)
		}
		detail.Notes = append(detail.Notes, note)
	}
	if err := noteRows.Err(); err != nil {
		return CompositionDetail{}, fmt.Errorf("iterate notes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CompositionDetail{}, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return detail, nil
}

// CreateComposition inserts the catalog row together with the uploader's
// initial rating and difficulty rows. All three land or none do.
func (s *Store) CreateComposition(ctx context.Context, ownerID int64, c NewComposition) (int64, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Composer = strings.TrimSpace(c.Composer)
	if err := validateComposition(c); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO compositions (user_id, title, composer, genre, notation, instrument_count, filename, views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		RETURNING id
	`, ownerID, c.Title, c.Composer, c.Genre, c.Notation, c.InstrumentCount, c.Filename).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert composition: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ratings (composition_id, user_id, rating)
		VALUES ($1, $2, $3)
	`, id, ownerID, c.Rating); err != nil {
		return 0, fmt.Errorf("insert initial rating: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO difficulty_ratings (composition_id, user_id, rating)
		VALUES ($1, $2, $3)
	`, id, ownerID, c.Difficulty); err != nil {
		return 0, fmt.Errorf("insert initial difficulty: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return id, nil
}

// Composition identifies an upload and its owner, used for authorizing
// deletes and serving files.
type Composition struct {
	ID       int64
	OwnerID  int64
	Title    string
	Filename string
}

// CompositionByFilename resolves a storage key back to its catalog row.
func (s *Store) CompositionByFilename(ctx context.Context, filename string) (Composition, error) {
	var c Composition
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, filename
		FROM compositions
		WHERE filename = $1
	`, filename).Scan(&c.ID, &c.OwnerID, &c.Title, &c.Filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Composition{}, ErrCompositionNotFound
		}
		return Composition{}, fmt.Errorf("lookup composition: %w", err)
	}
	return c, nil
}

// DeleteComposition removes the catalog row; ratings, difficulty ratings,
// tags, and notes go with it via foreign-key cascades. The caller must have
// already removed the blob.
func (s *Store) DeleteComposition(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM compositions
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete composition: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete composition: %w", err)
	} else if n == 0 {
		return ErrCompositionNotFound
	}
	return nil
}
