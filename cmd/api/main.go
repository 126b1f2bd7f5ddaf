package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"inkwell.org/internal/auth"
	"inkwell.org/internal/config"
	"inkwell.org/internal/httpapi"
	"inkwell.org/internal/obs"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// User store: PostgreSQL when a DSN is configured, otherwise an
	// in-memory store for local development.
	var db *sql.DB
	var store auth.UserStore
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		store = auth.NewPGStore(db)
	} else {
		log.Println("INKWELL_PG_DSN not set; using in-memory user store")
		store = auth.NewMemStore()
	}

	tokens, err := auth.NewTokens(cfg.AccessSecret, cfg.RefreshSecret, cfg.Issuer, cfg.Audience, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	service, err := auth.NewService(store, tokens,
		auth.WithBcryptCost(cfg.BcryptCost),
		auth.WithDefaultAdmin(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, service, httpapi.Options{
		SecureCookie:      cfg.SecureCookie,
		CORSOrigins:       cfg.CORSOrigins,
		AllowLocalOrigins: cfg.DevMode,
		RateBurst:         cfg.RateBurst,
		RatePerSec:        cfg.RatePerSec,
		LoginRateBurst:    cfg.LoginRateBurst,
		LoginRatePerMin:   cfg.LoginRatePerMin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting inkwell-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
