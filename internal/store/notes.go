package store

import (
	"context"
	"fmt"
	"strings"
)

// splitNoteText separates `#word` tokens from the free text around them.
// Tags lose their marker; the remaining words, re-joined, form the note.
func splitNoteText(text string) (tags []string, note string) {
	var rest []string
	for _, word := range strings.Fields(text) {
		if tag := strings.TrimPrefix(word, "#"); tag != word && tag != "" {
			tags = append(tags, tag)
			continue
		}
		rest = append(rest, word)
	}
	return tags, strings.Join(rest, " ")
}

// AddNote stores a note on a composition, extracting `#word` tokens into tag
// rows first. Tag rows and the note row commit together or not at all; a
// text consisting only of tags stores no note row.
func (s *Store) AddNote(ctx context.Context, compositionID, userID int64, text string) error {
	tags, note := splitNoteText(text)
	if len(tags) == 0 && note == "" {
		return fmt.Errorf("note text is required")
	}

	if err := s.compositionExists(ctx, compositionID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tags (composition_id, user_id, tag)
			VALUES ($1, $2, $3)
		`, compositionID, userID, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}

	if note != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notes (composition_id, user_id, note)
			VALUES ($1, $2, $3)
		`, compositionID, userID, note); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}
