package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aichat/internal/account"
	"aichat/internal/blob"
	"aichat/internal/config"
	"aichat/internal/db"
	"aichat/internal/debounce"
	"aichat/internal/httpapi"
	"aichat/internal/llm"
	"aichat/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if !cfg.HasAnyProviderKey() {
		log.Println("WARNING: no AI API keys configured; set GOOGLE_API_KEY or OPENROUTER_API_KEY")
	}

	var history store.HistoryStore
	var votes store.VoteStore
	if cfg.StoreBackend == config.StoreBackendSQLite {
		database, err := db.Open(cfg)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer database.Close()
		history = store.NewSQLiteHistory(database)
		votes = store.NewSQLiteVotes(database)
	} else {
		history = store.NewMemoryHistory()
		votes = store.NewMemoryVotes()
	}

	var uploads blob.ObjectStore
	var uploadsHandler http.Handler
	if cfg.GCSBucket != "" {
		gcsStore, err := blob.NewGCSStore(context.Background(), cfg.GCSBucket, cfg.GCSUploadPrefix)
		if err != nil {
			log.Fatalf("init gcs store: %v", err)
		}
		uploads = gcsStore
	} else {
		localStore, err := blob.NewLocalStore(cfg.LocalUploadDir, cfg.PublicBaseURL)
		if err != nil {
			log.Fatalf("init local upload store: %v", err)
		}
		uploads = localStore
		uploadsHandler = localStore.Handler()
	}

	handler := httpapi.NewHandler(
		cfg,
		account.NewUsers(),
		account.NewSessions(cfg.SessionTTL),
		history,
		votes,
		debounce.NewGuard(debounce.DefaultWindow),
		uploads,
		llm.NewDispatcher(cfg, nil),
	)

	srv := &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      httpapi.NewRouter(cfg, handler, uploadsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on %s (history backend: %s, upload backend: %s)", cfg.ListenAddress(), cfg.StoreBackend, uploads.Backend())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
