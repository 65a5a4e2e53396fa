package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/sephire/internal/server"
	"github.com/desertthunder/sephire/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the OAuth2 authorization-code flow.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// waits for the callback to populate the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	if err := r.doOAuth(ctx, "authorization"); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("Tokens are held in memory for this process.\n")
	r.writePlain("You can now use: sephire top tracks\n")

	return nil
}

// AuthStatus reports whether a session exists and when the token expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		r.writePlain("Not configured: set Spotify credentials first\n")
		return nil
	}

	token := r.session.Token()
	if token == nil {
		r.writePlain("Not authenticated: run 'sephire auth login'\n")
		return nil
	}

	r.writePlain("Authenticated\n")
	switch {
	case token.Expiry.IsZero():
		r.writePlain("Token expiry: not reported by provider\n")
	case token.Expiry.Before(time.Now()):
		r.writePlain("Token expired at %s (will refresh on next use)\n", token.Expiry.Format(time.RFC3339))
	default:
		r.writePlain("Token valid until %s\n", token.Expiry.Format(time.RFC3339))
	}
	if token.RefreshToken != "" {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: missing\n")
	}

	return nil
}

// requireSession verifies the session manager was built from valid credentials.
func (r *Runner) requireSession() error {
	if r.session == nil {
		return fmt.Errorf("%w: set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET or fill config.toml", shared.ErrMissingCredentials)
	}
	return nil
}

// ensureAuthenticated runs the OAuth flow inline when no session exists yet,
// so data commands work without a prior 'auth login'.
func (r *Runner) ensureAuthenticated(ctx context.Context) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	if r.session.Authenticated() {
		return nil
	}

	r.writePlain("No active session. Starting authorization...\n")
	return r.doOAuth(ctx, "authorization")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, prefix string) error {
	authURL, err := r.session.StartLogin()
	if err != nil {
		return fmt.Errorf("failed to start login flow: %w", err)
	}

	authHandler := server.NewAuthHandler(r.session, r.logger)
	router := server.NewBasicRouter()
	router.Handler(authHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var callbackErr error

	select {
	case callbackErr = <-authHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if callbackErr != nil {
		return fmt.Errorf("authorization failed: %w", callbackErr)
	}

	return nil
}
