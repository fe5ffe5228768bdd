package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chxlky/trello-ringcentral-relay/api"
	"github.com/chxlky/trello-ringcentral-relay/database"
	"github.com/chxlky/trello-ringcentral-relay/integrations"
	"github.com/chxlky/trello-ringcentral-relay/internal/card"
	"github.com/chxlky/trello-ringcentral-relay/internal/config"
	"github.com/chxlky/trello-ringcentral-relay/internal/dispatch"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "debug"
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := logConfig.Build()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load(config.New("."))
	if err != nil {
		zap.L().Fatal("Error reading configuration", zap.Error(err))
	}

	db := database.Init(cfg.Database.Path)
	sqlDB, _ := db.DB()
	store := database.NewStore(db)

	trelloClient := integrations.NewTrelloClient(cfg.Trello.APIKey)

	renderer := card.NewRenderer(
		card.WithIconBaseURL(cfg.Notification.IconBaseURL),
		card.WithFallbackAvatar(cfg.Notification.FallbackAvatarURL),
	)
	opts := []dispatch.Option{
		dispatch.WithRenderer(renderer),
		dispatch.WithLegacyCards(cfg.Notification.LegacyCards),
	}

	if cfg.Calendar.Enabled() {
		calClient, err := integrations.NewCalendarClient(context.Background(), cfg.Calendar.ServiceAccount, cfg.Calendar.CalendarID)
		if err != nil {
			zap.L().Fatal("Failed to initialise Google Calendar client", zap.Error(err))
		}
		zap.L().Info("Successfully authenticated with Google Calendar API.")
		opts = append(opts, dispatch.WithDueDateMirror(integrations.NewCalendarMirror(calClient, store)))
	}

	dispatcher := dispatch.New(
		store,
		store,
		trelloClient,
		integrations.NewWebhookChannel(),
		integrations.NewBotChannel(cfg.RingCentral.Server, store),
		opts...,
	)

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	apiHandler := &api.Handler{
		Dispatcher: dispatcher,
		Subs:       store,
		Creds:      store,
		Bots:       store,
		Trello:     trelloClient,
		PublicURL:  cfg.Server.PublicURL,
		Workers:    make(chan struct{}, 10), // Limit to 10 concurrent dispatches
	}
	apiHandler.RegisterRoutes(router.Group("/api"))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	zap.L().Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("publicURL", cfg.Server.PublicURL))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once

	cleanup := func(reason string) {
		zap.L().Info("Shutdown initiated", zap.String("reason", reason))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Shutdown waits for in-flight webhook deliveries to finish dispatching.
		zap.L().Info("Shutting down HTTP server...")
		if err := srv.Shutdown(ctx); err != nil {
			zap.L().Error("Error shutting down server", zap.Error(err))
		} else {
			zap.L().Info("HTTP server shut down gracefully.")
		}

		if sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				zap.L().Error("Error closing database", zap.Error(err))
			} else {
				zap.L().Info("Database connection closed.")
			}
		}
		close(done)
	}

	go func() {
		sig := <-sigCh
		once.Do(func() {
			cleanup(sig.String())
		})

		// if a second signal is caught, exit immediately
		go func() {
			<-sigCh
			zap.L().Info("Second interrupt signal received. Exiting immediately.")
			os.Exit(1)
		}()
	}()

	<-done
	zap.L().Info("Exiting...")
}
