package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scoreshelf/internal/blob"
	"scoreshelf/internal/store"
)

// placeholderPDF is a minimal single-page PDF used for seeded demo
// compositions.
var placeholderPDF = []byte("%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
	"trailer<</Root 1 0 R>>\n%%EOF\n")

func bootstrapDemoData(ctx context.Context, db *sql.DB, dataStore *store.Store, blobs blob.Store) error {
	ready, err := tableExists(ctx, db, "compositions")
	if err != nil {
		return fmt.Errorf("check compositions table: %w", err)
	}
	if !ready {
		return nil
	}

	userID, err := ensureDemoUser(ctx, db, dataStore)
	if err != nil {
		return err
	}
	return ensureDemoCompositions(ctx, db, dataStore, blobs, userID)
}

func ensureDemoUser(ctx context.Context, db *sql.DB, dataStore *store.Store) (int64, error) {
	userID, err := dataStore.CreateUser(ctx, "demo", "Demo123!pass")
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, store.ErrUserExists) {
		return 0, fmt.Errorf("bootstrap demo user: %w", err)
	}

	if err := db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, "demo").Scan(&userID); err != nil {
		return 0, fmt.Errorf("lookup demo user: %w", err)
	}
	return userID, nil
}

func ensureDemoCompositions(ctx context.Context, db *sql.DB, dataStore *store.Store, blobs blob.Store, userID int64) error {
	var count int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM compositions
	`).Scan(&count); err != nil {
		return fmt.Errorf("count compositions: %w", err)
	}
	if count > 0 {
		return nil
	}

	seeds := []store.NewComposition{
		{
			Title:           "Gymnopédie No. 1",
			Composer:        "Erik Satie",
			Genre:           "Classical",
			Notation:        "Standard",
			InstrumentCount: 1,
			Rating:          5,
			Difficulty:      2,
		},
		{
			Title:           "Autumn Leaves",
			Composer:        "Joseph Kosma",
			Genre:           "Jazz",
			Notation:        "Lead sheet",
			InstrumentCount: 4,
			Rating:          4,
			Difficulty:      3,
		},
	}

	for _, seed := range seeds {
		key := blob.NewKey(seed.Title + ".pdf")
		if err := blobs.Put(ctx, key, bytes.NewReader(placeholderPDF)); err != nil {
			return fmt.Errorf("seed blob: %w", err)
		}
		seed.Filename = key
		if _, err := dataStore.CreateComposition(ctx, userID, seed); err != nil {
			return fmt.Errorf("seed composition: %w", err)
		}
	}

	return nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var regclass sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT to_regclass($1)`, name).Scan(&regclass); err != nil {
		return false, err
	}
	return regclass.Valid, nil
}
