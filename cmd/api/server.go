package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"akasync/internal/interfaces/scheduler"
)

// StartServer creates the HTTP server and starts it in the background.
func StartServer(addr string, handler http.Handler, log zerolog.Logger) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	return srv
}

// GracefulShutdown stops the HTTP server first so no new refresh jobs
// arrive, then drains the scheduler.
func GracefulShutdown(srv *http.Server, sched *scheduler.Scheduler, timeout time.Duration, log zerolog.Logger) {
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}

	if sched != nil {
		sched.Shutdown(timeout)
	}

	log.Info().Msg("stopped")
}
