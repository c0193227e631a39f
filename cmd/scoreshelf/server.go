package main

import (
	"fmt"
	"net/http"

	"scoreshelf/internal/app/catalog"
	"scoreshelf/internal/app/notes"
	"scoreshelf/internal/app/ratings"
	"scoreshelf/internal/app/users"
	"scoreshelf/internal/auth"
	"scoreshelf/internal/blob"
	"scoreshelf/internal/httpapi"
	"scoreshelf/internal/store"
)

func newBlobStore(cfg Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case "bucket":
		return blob.NewBucket(cfg.BucketURL, cfg.BucketName, cfg.BucketServiceKey), nil
	default:
		local, err := blob.NewLocal(cfg.BlobDir)
		if err != nil {
			return nil, fmt.Errorf("local blob store: %w", err)
		}
		return local, nil
	}
}

func newHTTPHandler(cfg Config, dataStore *store.Store, blobs blob.Store) http.Handler {
	userSvc := users.New(dataStore, cfg.SessionTTL)
	catalogSvc := catalog.New(dataStore, blobs)
	ratingsSvc := ratings.New(dataStore)
	notesSvc := notes.New(dataStore)

	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.SessionTTL)

	server := httpapi.New(userSvc, catalogSvc, ratingsSvc, notesSvc, tokens, nil)
	return httpapi.Recovery(httpapi.RequestLogging(server.Routes()))
}
