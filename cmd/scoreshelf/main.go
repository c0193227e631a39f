package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"scoreshelf/internal/logging"
	"scoreshelf/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	dataStore := store.New(db)

	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open blob store")
	}

	if err := bootstrapDemoData(context.Background(), db, dataStore, blobs); err != nil {
		log.Fatal().Err(err).Msg("bootstrap demo data")
	}

	handler := newHTTPHandler(cfg, dataStore, blobs)

	log.Info().Str("addr", cfg.Addr).Str("blob_backend", cfg.BlobBackend).Msg("scoreshelf listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
