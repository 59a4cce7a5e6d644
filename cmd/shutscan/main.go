// Package main provides the entry point for the shutscan CLI, which mines a
// Gmail inbox for shutdown job offers and publishes them to Google Calendar
// and a tracking sheet.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/docwalter/shutscan/internal/config"
	"github.com/docwalter/shutscan/internal/googleauth"
)

var rootCmd = &cobra.Command{
	Use:   "shutscan",
	Short: "Mine a Gmail inbox for shutdown job offers",
	Long:  "shutscan scans recent Gmail messages for mechanical fitter and rigger shutdown work, extracts structured job offers with Gemini, and publishes them to Google Calendar and a tracking spreadsheet.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the layers shared by every subcommand: defaults, then an
// optional JSON file, then environment variables. Flag overrides are applied
// by each command afterwards.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()
	return &cfg, nil
}

// authOption resolves the OAuth token into a Google API client option.
func authOption(ctx context.Context, cfg *config.Config) (option.ClientOption, error) {
	opt, err := googleauth.ClientOption(ctx, cfg.TokenBase64, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	return opt, nil
}
