package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"grocery-planner/internal/auth"
	"grocery-planner/internal/clipper"
	"grocery-planner/internal/config"
	"grocery-planner/internal/database"
	"grocery-planner/internal/httpapi"
	"grocery-planner/internal/ingredient"
	"grocery-planner/internal/llm"
	"grocery-planner/internal/logging"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/planner"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/session"
	"grocery-planner/internal/shopping"
	"grocery-planner/internal/telegram"
	"grocery-planner/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"
)

const sessionCleanupInterval = time.Hour

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server failed")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, closeSessions, err := openSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	users := user.NewRepository(db.SQL)
	recipes := recipe.NewRepository(db.SQL)
	ingredients := ingredient.NewRepository(db.SQL)
	lists := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	oauthConfig := auth.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL())
	authenticator := auth.NewAuthenticator(
		oauthConfig,
		auth.NewGoogleProfileFetcher(oauthConfig),
		users,
		sessions,
		auth.NewSigner(cfg.SessionSecret),
		logging.Component(logger, "auth"),
	)

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer gemini.Close()
		textGen = gemini
	} else {
		logger.Info("GEMINI_API_KEY not set, recipe import uses structured data only")
	}

	plans := planner.NewService(planner.NewPlanRepository(db.SQL), recipes, logging.Component(logger, "planner"))

	deps := httpapi.Deps{
		Logger:        logging.Component(logger, "http"),
		Auth:          authenticator,
		Ingredients:   ingredients,
		Recipes:       recipes,
		Plans:         plans,
		Lists:         lists,
		Clipper:       clipper.NewClipper(textGen, metricsStore, logging.Component(logger, "clipper")),
		Metrics:       metricsStore,
		DataDir:       filepath.Dir(cfg.DatabasePath),
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
	}

	if cfg.TelegramEnabled() {
		allowed, err := cfg.TelegramUsers()
		if err != nil {
			return err
		}
		bot, err := telegram.NewBot(cfg.TelegramBotToken, cfg.TelegramWebhookURL, allowed, telegram.Deps{
			Users:       users,
			Plans:       plans,
			Lists:       lists,
			Recipes:     recipes,
			Ingredients: ingredients,
		}, logging.Component(logger, "telegram"))
		if err != nil {
			return err
		}
		deps.Telegram = bot
	}

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go cleanupSessions(ctx, sessions, logging.Component(logger, "sessions"))

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

// openSessionStore returns the configured session store and a function
// releasing it.
func openSessionStore(ctx context.Context, cfg *config.Config, db *database.DB) (session.Store, func(), error) {
	if cfg.SessionStore == config.SessionStoreMongo {
		store, err := session.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	}
	return session.NewSQLiteStore(db.SQL), func() {}, nil
}

func cleanupSessions(ctx context.Context, store session.Store, logger *logrus.Entry) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.CleanupExpired(ctx, now)
			if err != nil {
				logger.WithError(err).Warn("session cleanup failed")
				continue
			}
			if removed > 0 {
				logger.WithField("removed", removed).Info("expired sessions removed")
			}
		}
	}
}
