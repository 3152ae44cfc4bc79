package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	authgw "cattle-dental-health/internal/adapters/auth/gateway"
	"cattle-dental-health/internal/adapters/feed/boviplan"
	"cattle-dental-health/internal/adapters/mediastore/drive"
	pg "cattle-dental-health/internal/adapters/storage/postgres"
	"cattle-dental-health/internal/platform/config"
	"cattle-dental-health/internal/platform/logger"
	"cattle-dental-health/internal/ports/auth"
	"cattle-dental-health/internal/ports/feed"
	"cattle-dental-health/internal/ports/mediastore"
	"cattle-dental-health/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.FromSettings(cfg.LogLevel, cfg.LogFormat, cfg.AppName)

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("no se pudo abrir postgres", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
	} else {
		log.Warn("DB_DSN vacío, usando repos in-memory", nil)
	}

	var verifier auth.AuthVerifier
	if cfg.AuthBaseURL != "" {
		verifier, err = authgw.NewVerifier(authgw.Options{
			BaseURL: cfg.AuthBaseURL,
			APIKey:  cfg.AuthAPIKey,
			Timeout: 5 * time.Second,
		})
		if err != nil {
			log.Error("auth gateway mal configurado", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	} else {
		log.Warn("AUTH_BASE_URL vacío, auth en modo dev", nil)
	}

	var source feed.Source
	if cfg.FeedBaseURL != "" {
		source, err = boviplan.New(boviplan.Options{
			BaseURL:    cfg.FeedBaseURL,
			ClientName: cfg.FeedClientName,
			Timeout:    30 * time.Second,
			Log:        log,
		})
		if err != nil {
			log.Error("feed mal configurado", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}

	var migrator mediastore.Migrator
	if cfg.MediaStoreBaseURL != "" {
		migrator, err = drive.New(drive.Options{
			StoreBaseURL: cfg.MediaStoreBaseURL,
			APIKey:       cfg.MediaStoreAPIKey,
			Bucket:       cfg.MediaStoreBucket,
			Timeout:      60 * time.Second,
			Log:          log,
		})
		if err != nil {
			log.Error("media store mal configurado", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	} else {
		log.Info("migración de fotos apagada (MEDIA_STORE_BASE_URL vacío)", nil)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier, // nil => modo dev
		DB:           db,
		Log:          log,
		Feed:         source,
		Migrator:     migrator,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
