package main

import (
	"context"
	"os"

	"github.com/desertthunder/sephire/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates a starter configuration file from the embedded template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.writePlain("Config file already exists at %s\n", configPath)
	} else {
		r.logger.Info("creating config file from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Config file created at %s\n", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}
	r.config = config

	if err := config.Credentials.Spotify.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Create an app at https://developer.spotify.com/dashboard\n")
		r.writePlain("2. Add http://%s:%d/callback as a redirect URI\n", config.Server.Host, config.Server.Port)
		r.writePlain("3. Fill client_id and client_secret in %s (or export SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n", configPath)
		return nil
	}

	r.writePlain("✓ Spotify credentials configured\n")
	r.writePlain("Run 'sephire auth login' to authorize, or 'sephire serve' for the notebook API.\n")

	return nil
}
