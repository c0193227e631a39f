package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeBucket implements just enough of the object API for the Bucket store.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (f *fakeBucket) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer service-key" {
			t.Errorf("missing service key, got %q", got)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		key := strings.TrimPrefix(r.URL.Path, "/object/scores/")

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if _, exists := f.objects[key]; exists && r.Header.Get("x-upsert") != "true" {
				w.WriteHeader(http.StatusConflict)
				return
			}
			f.objects[key] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			body, ok := f.objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(body)
		case http.MethodDelete:
			if _, ok := f.objects[key]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(f.objects, key)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func TestBucketPutGetDelete(t *testing.T) {
	fake := newFakeBucket()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	b := NewBucket(srv.URL, "scores", "service-key")
	ctx := context.Background()

	if err := b.Put(ctx, "key_piece.pdf", strings.NewReader("%PDF-1.4 data")); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	rc, err := b.Get(ctx, "key_piece.pdf")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(data) != "%PDF-1.4 data" {
		t.Fatalf("unexpected object contents: %q", data)
	}

	if err := b.Delete(ctx, "key_piece.pdf"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := b.Get(ctx, "key_piece.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBucketPutOverwrites(t *testing.T) {
	fake := newFakeBucket()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	b := NewBucket(srv.URL, "scores", "service-key")
	ctx := context.Background()

	if err := b.Put(ctx, "key.pdf", strings.NewReader("old")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := b.Put(ctx, "key.pdf", strings.NewReader("new")); err != nil {
		t.Fatalf("Put overwrite error: %v", err)
	}

	rc, err := b.Get(ctx, "key.pdf")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "new" {
		t.Fatalf("expected overwritten contents, got %q", data)
	}
}

func TestBucketDeleteMissingIsNoError(t *testing.T) {
	fake := newFakeBucket()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	b := NewBucket(srv.URL, "scores", "service-key")

	if err := b.Delete(context.Background(), "never-uploaded.pdf"); err != nil {
		t.Fatalf("Delete of missing object should succeed, got %v", err)
	}
}

func TestBucketGetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBucket(srv.URL, "scores", "service-key")

	if _, err := b.Get(context.Background(), "key.pdf"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a non-ErrNotFound error, got %v", err)
	}
}
