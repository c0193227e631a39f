// Package catalog coordinates composition uploads, listings, and deletes
// across the relational store and the blob store.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"scoreshelf/internal/blob"
	"scoreshelf/internal/store"
)

var (
	// ErrNotOwner signals a delete attempt by someone other than the uploader.
	ErrNotOwner = errors.New("composition belongs to another user")
	// ErrUnsupportedFile signals an upload that is not a valid PDF.
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// Store describes the persistence operations required by the catalog.
type Store interface {
	ListCompositions(ctx context.Context, filter store.Filter) ([]store.CompositionSummary, error)
	GetComposition(ctx context.Context, id int64) (store.CompositionDetail, error)
	CreateComposition(ctx context.Context, ownerID int64, c store.NewComposition) (int64, error)
	CompositionByFilename(ctx context.Context, filename string) (store.Composition, error)
	DeleteComposition(ctx context.Context, id int64) error
}

// Upload carries one incoming sheet-music file with its metadata. Rating and
// Difficulty are the uploader's initial assessments.
type Upload struct {
	Title           string
	Composer        string
	Genre           string
	Notation        string
	InstrumentCount int
	Rating          int
	Difficulty      int
	Filename        string
	Content         io.Reader
}

// Service exposes the catalog workflows used by the HTTP layer.
type Service interface {
	List(ctx context.Context, filter store.Filter) ([]store.CompositionSummary, error)
	Get(ctx context.Context, id int64) (store.CompositionDetail, error)
	Create(ctx context.Context, ownerID int64, upload Upload) (int64, error)
	Delete(ctx context.Context, userID int64, filename string) error
	OpenFile(ctx context.Context, filename string) (io.ReadCloser, error)
}

type service struct {
	store Store
	blobs blob.Store
}

// New wires a catalog Service over the given stores.
func New(store Store, blobs blob.Store) Service {
	return &service{store: store, blobs: blobs}
}

func (s *service) List(ctx context.Context, filter store.Filter) ([]store.CompositionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListCompositions(ctx, filter)
}

func (s *service) Get(ctx context.Context, id int64) (store.CompositionDetail, error) {
	if err := ctx.Err(); err != nil {
		return store.CompositionDetail{}, err
	}
	return s.store.GetComposition(ctx, id)
}

// Create stores the blob under a fresh randomized key and then inserts the
// catalog row. If the row insert fails the blob is removed again so neither
// side keeps a reference the other lacks.
func (s *service) Create(ctx context.Context, ownerID int64, upload Upload) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	content, err := io.ReadAll(upload.Content)
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}
	if err := validatePDF(upload.Filename, content); err != nil {
		return 0, err
	}

	key := blob.NewKey(upload.Filename)
	if err := s.blobs.Put(ctx, key, bytes.NewReader(content)); err != nil {
		return 0, fmt.Errorf("store file: %w", err)
	}

	id, err := s.store.CreateComposition(ctx, ownerID, store.NewComposition{
		Title:           upload.Title,
		Composer:        upload.Composer,
		Genre:           upload.Genre,
		Notation:        upload.Notation,
		InstrumentCount: upload.InstrumentCount,
		Filename:        key,
		Rating:          upload.Rating,
		Difficulty:      upload.Difficulty,
	})
	if err != nil {
		_ = s.blobs.Delete(ctx, key)
		return 0, err
	}
	return id, nil
}

// Delete removes an upload owned by userID. The blob goes first, the row
// second: a failure in between leaves an orphan blob, never a catalog row
// pointing at nothing.
func (s *service) Delete(ctx context.Context, userID int64, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := s.store.CompositionByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if c.OwnerID != userID {
		return ErrNotOwner
	}

	if err := s.blobs.Delete(ctx, c.Filename); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return s.store.DeleteComposition(ctx, c.ID)
}

// OpenFile streams a stored PDF after confirming the key belongs to a
// composition, so the blob store never serves arbitrary keys.
func (s *service) OpenFile(ctx context.Context, filename string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.store.CompositionByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}
	return s.blobs.Get(ctx, c.Filename)
}

// validatePDF rejects uploads whose extension or contents are not PDF.
func validatePDF(filename string, content []byte) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return ErrUnsupportedFile
	}
	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(content), conf); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
	}
	return nil
}
