// Package cli implements the textlab command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/config"
)

var (
	cfgFile string
	envFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "textlab",
	Short: "Text preprocessing and augmentation service",
	Long: `textlab serves dataset samples, text preprocessing (tokenize, pad, embed)
and word-level augmentation (synonym replacement, random insertion, random
deletion) over HTTP, and manages the lexicon and vector stores behind them.

Example usage:
  textlab serve --config textlab.yaml     # Run the API
  textlab serve --demo                    # Run with built-in demo data
  textlab vectors import glove.6B.100d.txt
  textlab lexicon import synonyms.yaml
  textlab datasets list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return setupLogging(os.Stderr, cfg)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus TEXTLAB_* env)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with TEXTLAB_* variables (default: .env if present)")
}

// loadEnvFile exports a dotenv file into the process environment. Variables
// already set win. A missing default .env is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func setupLogging(w io.Writer, c config.Config) error {
	level, err := c.SlogLevel()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if c.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
