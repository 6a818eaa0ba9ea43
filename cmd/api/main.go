package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/alertrelay/internal/alert"
	"github.com/hamed0406/alertrelay/internal/config"
	"github.com/hamed0406/alertrelay/internal/httpapi"
	"github.com/hamed0406/alertrelay/internal/logging"
	"github.com/hamed0406/alertrelay/internal/media"
	"github.com/hamed0406/alertrelay/internal/notify"
	"github.com/hamed0406/alertrelay/internal/repo"
	"github.com/hamed0406/alertrelay/internal/repo/memory"
	"github.com/hamed0406/alertrelay/internal/repo/postgres"
	"github.com/hamed0406/alertrelay/internal/transcode"
)

func main() {
	envErr := godotenv.Load() // optional .env next to the binary
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	if envErr == nil {
		logger.Info("env_file_loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := media.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("upload_dir", zap.Error(err))
	}

	var history repo.AlertLog = memory.New()
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("db_connect", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("db_schema", zap.Error(err))
		}
		history = pg
	}

	if !cfg.WhatsApp.Complete() {
		// not fatal: each alert reports the missing configuration
		logger.Warn("whatsapp_credentials_missing")
	}
	wa := notify.NewWhatsApp(cfg.GraphBaseURL, cfg.WhatsApp, cfg.ProviderTimeout, logger)

	opts := []alert.Option{alert.WithHistory(history)}
	if cfg.TranscodeEnabled {
		opts = append(opts, alert.WithTranscoder(transcode.NewFFmpeg(cfg.FFmpegPath, cfg.TranscodeTimeout, logger)))
	}
	pipeline := alert.New(cfg.WhatsApp, store, wa, logger, opts...)

	api := httpapi.NewServer(logger, pipeline, history, cfg.MaxUploadBytes)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			HistoryKeys:    cfg.HistoryAPIKeys,
			SendRPM:        cfg.SendRPM,
			SendBurst:      cfg.SendBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		// transcode + three provider calls must fit in here
		WriteTimeout: cfg.TranscodeTimeout + 3*cfg.ProviderTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("upload_dir", cfg.UploadDir),
			zap.Bool("transcode", cfg.TranscodeEnabled),
			zap.Bool("postgres", cfg.DatabaseURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("api_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown", zap.Error(err))
	}
}
