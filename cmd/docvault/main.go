package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault/internal/config"
)

var version = "dev"

var (
	noColor      bool
	outputFormat string
	dataDirFlag  string
	logLevelFlag string
)

// cfg is loaded once per invocation by rootCmd's PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "docvault",
	Short:         "Local store for legal documents, versions and templates",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "json" && outputFormat != "yaml" {
			return fmt.Errorf("invalid --output %q: must be json or yaml", outputFormat)
		}
		if cmd.Name() == "set" && cmd.Parent() == configCmd {
			// config set must work even when the current config is invalid.
			return nil
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if dataDirFlag != "" {
			loaded.Storage.DataDir = dataDirFlag
		}
		if logLevelFlag != "" {
			loaded.Log.Level = logLevelFlag
		}
		cfg = loaded
		setupLogging(os.Stderr, cfg.Log)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	pf.StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	pf.StringVar(&dataDirFlag, "data-dir", "", "override storage.data_dir")
	pf.StringVar(&logLevelFlag, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		docsCmd,
		versionsCmd,
		commentsCmd,
		templatesCmd,
		settingsCmd,
		exportCmd,
		importCmd,
		filesCmd,
		ocrCmd,
		configCmd,
		serveCmd,
		stopCmd,
		statusCmd,
	)
}

func setupLogging(w io.Writer, lc config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if lc.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
