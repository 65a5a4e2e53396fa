package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/session"
	"github.com/desertthunder/sephire/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var sess *session.Manager
	var spotifyService services.Service

	if oauthConfig, err := services.OAuthConfig(config.Credentials.Spotify.Map()); err == nil {
		sess = session.NewManager(oauthConfig)
		spotifyService = services.NewSpotifyService(sess, nil)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Session: sess,
		Spotify: spotifyService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "sephire",
		Usage:    "Pull Spotify listening data for notebook analysis",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
