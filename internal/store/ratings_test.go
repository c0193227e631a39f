package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpsertRating(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id, composition_id)`)).
		WithArgs(int64(5), int64(3), 4).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.UpsertRating(context.Background(), 5, 3, 4); err != nil {
		t.Fatalf("UpsertRating error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertRatingUnknownComposition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if err := s.UpsertRating(context.Background(), 99, 3, 4); !errors.Is(err, ErrCompositionNotFound) {
		t.Fatalf("expected ErrCompositionNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertRatingValueRange(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	for _, value := range []int{0, 6, -1} {
		if err := s.UpsertRating(context.Background(), 5, 3, value); err == nil {
			t.Fatalf("expected error for rating %d, got nil", value)
		}
	}
	for _, value := range []int{0, 6} {
		if err := s.UpsertDifficultyRating(context.Background(), 5, 3, value); err == nil {
			t.Fatalf("expected error for difficulty %d, got nil", value)
		}
	}
}

func TestUpsertDifficultyRating(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO difficulty_ratings`)).
		WithArgs(int64(5), int64(3), 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.UpsertDifficultyRating(context.Background(), 5, 3, 2); err != nil {
		t.Fatalf("UpsertDifficultyRating error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
