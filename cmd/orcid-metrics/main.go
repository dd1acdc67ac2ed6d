// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the orcid-metrics CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/orcid-metrics/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds the values read from .secrets/ at startup.
var loadedSecrets secrets.Store

// logger is configured from --log-format and --log-level before any
// subcommand runs.
var logger = slog.Default()

// rootCmd is the base command for the orcid-metrics CLI.
var rootCmd = &cobra.Command{
	Use:   "orcid-metrics",
	Short: "Collect ORCID works with Crossref metrics and Event Data mentions",
	Long: `orcid-metrics reads a list of ORCID iDs from a spreadsheet, lists each
researcher's works through the public ORCID API, enriches every work that has
a DOI with Crossref citation metrics and Crossref Event Data mention counts,
and writes one consolidated table.

Use "extract" for a one-shot run, "validate" to check an input file and
"serve" for the browser front end.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(cmd.ErrOrStderr(), viper.GetString("log_format"), viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "keys", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./orcid-metrics.yaml or ~/.config/orcid-metrics/config.yaml)")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("secrets-dir", ".secrets", "directory of secret files")
	addExtractionFlags(pf)

	mustBind("log_format", pf.Lookup("log-format"))
	mustBind("log_level", pf.Lookup("log-level"))
	mustBind("secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("orcid-metrics")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "orcid-metrics"))
		}
	}

	viper.SetEnvPrefix("ORCID_METRICS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
