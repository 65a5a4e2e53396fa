package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/sephire/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP API for notebook consumption.
//
// Credentials are validated before binding so a misconfigured server fails
// fast instead of 403ing every request.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Credentials.Spotify.Validate(); err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	host := r.config.Server.Host
	if flagHost := cmd.String("host"); flagHost != "" {
		host = flagHost
	}
	port := r.config.Server.Port
	if flagPort := cmd.Int("port"); flagPort != 0 {
		port = flagPort
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(server.NewRootHandler())
	router.Handler(server.NewAuthHandler(r.session, r.logger))
	router.Handler(server.NewAnalyticsHandler(r.spotify, r.logger))

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("listening at http://%s", addr)
		r.writePlain("Visit http://%s/login to authorize, then hit the data endpoints.\n", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-notifyCtx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return nil
}
