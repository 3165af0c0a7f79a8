package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jimallen/TasksAgent-sub000/internal/ai"
	"github.com/jimallen/TasksAgent-sub000/internal/api"
	"github.com/jimallen/TasksAgent-sub000/internal/classifier"
	"github.com/jimallen/TasksAgent-sub000/internal/config"
	"github.com/jimallen/TasksAgent-sub000/internal/crypto"
	"github.com/jimallen/TasksAgent-sub000/internal/database"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
	"github.com/jimallen/TasksAgent-sub000/internal/extractor"
	"github.com/jimallen/TasksAgent-sub000/internal/filter"
	"github.com/jimallen/TasksAgent-sub000/internal/gmailclient"
	"github.com/jimallen/TasksAgent-sub000/internal/logger"
	"github.com/jimallen/TasksAgent-sub000/internal/session"
	"github.com/jimallen/TasksAgent-sub000/internal/store"
	"github.com/jimallen/TasksAgent-sub000/internal/worker"
)

func main() {
	// 1. Load .env configuration
	_ = godotenv.Load()

	log, err := logger.NewLogger()
	if err != nil {
		panic("Could not initialize logger: " + err.Error())
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return
	}

	ctx := context.Background()

	// 2. Database
	pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("could not connect to the database", zap.Error(err))
		return
	}
	defer pool.Close()

	if err = database.RunMigrations(cfg.DatabaseURL, log); err != nil {
		log.Error("database migrations failed", zap.Error(err))
		return
	}

	// 3. Shared OAuth2 config
	if cfg.OAuthClientID == "" || cfg.OAuthClientSecret == "" || cfg.OAuthRedirectURL == "" {
		log.Error("Google OAuth configuration missing", zap.String("component", "main"))
		return
	}

	googleOAuthConfig := &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
		},
	}

	// 4. Storage layer with encrypted credentials
	cipher, err := crypto.NewCipher([]byte(cfg.EncryptionKey))
	if err != nil {
		log.Error("could not initialize credential encryption", zap.Error(err))
		return
	}
	dbStore := store.NewStore(pool, cipher)

	// 5. Pipeline stages
	sess := session.NewManager(googleOAuthConfig, dbStore, log)
	gmail := gmailclient.New(sess, cfg.Gmail.BatchSize, log)

	cls := classifier.New(classifier.NewRegistry(), classifier.DefaultScoringPolicy(), log)
	flt := filter.NewEvaluator(domain.FilterCriteria{
		SenderDomains: cfg.Gmail.SenderDomains,
		MinConfidence: cfg.Filter.MinConfidence,
		ExcludeLabels: cfg.Filter.ExcludeLabels,
	}, cls, log)
	aiClient := ai.NewClient(cfg.AI.APIURL, cfg.AI.APIKey, cfg.AI.Model, log)
	ext := extractor.New(aiClient, log)

	// 6. Background worker
	appWorker, err := worker.NewWorker(gmail, dbStore, cls, flt, ext, cfg.Gmail, log)
	if err != nil {
		log.Error("could not initialize worker", zap.Error(err))
		return
	}
	appWorker.Start(ctx)

	// 7. API server in the foreground
	apiServer := api.NewServer(dbStore, sess, cls, flt, googleOAuthConfig, log)

	log.Info("starting API server", zap.String("port", cfg.Port), zap.String("component", "main"))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      apiServer.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("could not start server", zap.Error(err))
	}
}
