package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func summaryColumns() []string {
	return []string{
		"id", "title", "composer", "genre", "notation", "instrument_count",
		"filename", "views", "username", "avg_rating", "rating_count", "avg_difficulty",
	}
}

func summaryRow(id int64, title string, avgRating, avgDifficulty any, ratingCount int) []driver.Value {
	return []driver.Value{
		id, title, "Composer", "Jazz", "Standard", 2,
		"abc_piece.pdf", 7, "alice", avgRating, ratingCount, avgDifficulty,
	}
}

func TestListCompositionsKeepsUnratedPieces(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	rows := sqlmock.NewRows(summaryColumns()).
		AddRow(summaryRow(2, "Rated Piece", 4.5, 3.0, 2)...).
		AddRow(summaryRow(1, "Fresh Upload", nil, nil, 0)...)

	mock.ExpectQuery(`LEFT JOIN`).WillReturnRows(rows)

	got, err := s.ListCompositions(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ListCompositions error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 compositions, got %d", len(got))
	}
	if got[0].AvgRating == nil || *got[0].AvgRating != 4.5 {
		t.Fatalf("expected avg rating 4.5, got %v", got[0].AvgRating)
	}
	if got[1].AvgRating != nil || got[1].AvgDifficulty != nil {
		t.Fatalf("expected unrated piece to have nil aggregates, got %v / %v", got[1].AvgRating, got[1].AvgDifficulty)
	}
	if got[1].Title != "Fresh Upload" {
		t.Fatalf("expected unrated piece to stay in the listing, got %q", got[1].Title)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListCompositionsFilterArguments(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	minRating := 3.0
	maxDifficulty := 4.0

	mock.ExpectQuery(`AND c\.title ILIKE \$1 AND EXISTS .* AND r\.avg_rating >= \$3 AND d\.avg_difficulty <= \$4`).
		WithArgs("%sonata%", "%jazz%", minRating, maxDifficulty).
		WillReturnRows(sqlmock.NewRows(summaryColumns()))

	_, err = s.ListCompositions(context.Background(), Filter{
		Title:         "sonata",
		Tag:           "jazz",
		MinRating:     &minRating,
		MaxDifficulty: &maxDifficulty,
	})
	if err != nil {
		t.Fatalf("ListCompositions error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetCompositionIncrementsViews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET views = views + 1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM compositions c`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(summaryColumns()).
			AddRow(summaryRow(5, "Piece", 4.0, 2.0, 1)...))
	mock.ExpectQuery(`SELECT DISTINCT tag`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"tag"}).AddRow("jazz").AddRow("swing"))
	mock.ExpectQuery(`FROM notes n`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"username", "note", "created_at"}).
			AddRow("bob", "nice arrangement", time.Now()))
	mock.ExpectCommit()

	detail, err := s.GetComposition(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetComposition error: %v", err)
	}

	if detail.Title != "Piece" {
		t.Fatalf("expected title Piece, got %q", detail.Title)
	}
	if len(detail.Tags) != 2 || detail.Tags[0] != "jazz" {
		t.Fatalf("unexpected tags: %v", detail.Tags)
	}
	if len(detail.Notes) != 1 || detail.Notes[0].Author != "bob" {
		t.Fatalf("unexpected notes: %v", detail.Notes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetCompositionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET views = views + 1`)).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = s.GetComposition(context.Background(), 99)
	if !errors.Is(err, ErrCompositionNotFound) {
		t.Fatalf("expected ErrCompositionNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateCompositionCommitsAllRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO compositions`)).
		WithArgs(int64(7), "Title", "Composer", "Jazz", "Standard", 3, "key_file.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ratings`)).
		WithArgs(int64(11), int64(7), 4).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO difficulty_ratings`)).
		WithArgs(int64(11), int64(7), 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := s.CreateComposition(context.Background(), 7, NewComposition{
		Title:           "  Title ",
		Composer:        " Composer ",
		Genre:           "Jazz",
		Notation:        "Standard",
		InstrumentCount: 3,
		Filename:        "key_file.pdf",
		Rating:          4,
		Difficulty:      2,
	})
	if err != nil {
		t.Fatalf("CreateComposition error: %v", err)
	}
	if id != 11 {
		t.Fatalf("expected id 11, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateCompositionRollsBackOnRatingFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO compositions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ratings`)).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err = s.CreateComposition(context.Background(), 7, NewComposition{
		Title:           "Title",
		Composer:        "Composer",
		InstrumentCount: 1,
		Filename:        "key_file.pdf",
		Rating:          4,
		Difficulty:      2,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateCompositionValidation(t *testing.T) {
	tests := []struct {
		name string
		c    NewComposition
	}{
		{name: "missing title", c: NewComposition{Composer: "C", InstrumentCount: 1, Filename: "f.pdf", Rating: 3, Difficulty: 3}},
		{name: "missing composer", c: NewComposition{Title: "T", InstrumentCount: 1, Filename: "f.pdf", Rating: 3, Difficulty: 3}},
		{name: "zero instruments", c: NewComposition{Title: "T", Composer: "C", Filename: "f.pdf", Rating: 3, Difficulty: 3}},
		{name: "rating out of range", c: NewComposition{Title: "T", Composer: "C", InstrumentCount: 1, Filename: "f.pdf", Rating: 6, Difficulty: 3}},
		{name: "difficulty out of range", c: NewComposition{Title: "T", Composer: "C", InstrumentCount: 1, Filename: "f.pdf", Rating: 3, Difficulty: 0}},
	}

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.CreateComposition(context.Background(), 1, tc.c); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestDeleteCompositionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM compositions`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteComposition(context.Background(), 42); !errors.Is(err, ErrCompositionNotFound) {
		t.Fatalf("expected ErrCompositionNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
