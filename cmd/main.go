package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"weld-inspector/config"
	"weld-inspector/internal/api/rest"
	"weld-inspector/internal/api/telegram"
	"weld-inspector/internal/container"
	"weld-inspector/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("CRITICAL: Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		os.Stderr.WriteString("CRITICAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем хранилища, детектор и сервисы приложения
	appContainer, err := container.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build application", zap.Error(err))
	}
	defer func() {
		if err := appContainer.Close(); err != nil {
			log.Error("Failed to release resources", zap.Error(err))
		}
	}()

	log.Info("Application started",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("images", cfg.Storage.ImageBackend),
		zap.String("model", cfg.Detector.ModelPath))

	var wg sync.WaitGroup

	var srv *rest.Server
	if cfg.HTTP.Enabled {
		srv = rest.New(cfg.HTTP, appContainer, cfg.App.MaxUploadSize, log.Named("http"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Server failed", zap.Error(err))
				stop()
			}
		}()
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, log.Named("telegram"))
		if err != nil {
			log.Error("Failed to create bot", zap.Error(err))
			stop()
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Info("Bot is running...")
				if err := bot.Run(ctx); err != nil {
					log.Error("Bot error", zap.Error(err))
				}
			}()
		}
	}

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	wg.Wait()
	log.Info("Application exited")
}
