// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/app"
	"github.com/briangreenhill/coachengine/internal/config"
	"github.com/briangreenhill/coachengine/internal/http/routes"
	"github.com/briangreenhill/coachengine/internal/jobs"
	"github.com/briangreenhill/coachengine/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("startup failed")
	}
	defer a.Close()

	queue := jobs.NewClient(cfg.RedisAddr, logger)
	defer queue.Close()

	s := routes.New(routes.ServerOptions{
		Contexts:  a.Aggregator,
		Readiness: a.Scorer,
		Workouts:  a.Workouts,
		Plans:     a.Plans,
		Chat:      a.Chat,
		Jobs:      queue,
		DB:        a.Store,
		Logger:    logger,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: s.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info().Str("port", cfg.Port).Str("model", a.Model.Name()).Msg("starting api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("api stopped")
}
