package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/confab/internal/config"
)

// rootOptions holds the flags shared by every subcommand and the config they
// resolve to.
type rootOptions struct {
	configPath string
	logLevel   string
	dictPath   string

	cfg      *config.Config
	levelVar *slog.LevelVar
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{levelVar: new(slog.LevelVar)}

	cmd := &cobra.Command{
		Use:   "confab",
		Short: "Confab - a phonetic pun generator",
		Long: `Confab pronounces a phrase, then searches a pronouncing dictionary for
other words that reproduce the same sounds: "ice cream" becomes "i scream".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "confab.yaml", "path to the YAML configuration file")
	f.StringVar(&opts.logLevel, "log-level", "", "override server.log_level (debug, info, warn, error)")
	f.StringVar(&opts.dictPath, "dict", "", "override dictionary.path")

	cmd.AddCommand(
		newSayCmd(opts),
		newOdditiesCmd(opts),
		newServeCmd(opts),
		newImportDictCmd(opts),
	)
	return cmd
}

// load reads the config file, applies flag overrides and installs the
// default logger. A missing config file is only an error when --config was
// given explicitly.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return err
	}

	if o.logLevel != "" {
		cfg.Server.LogLevel = config.LogLevel(o.logLevel)
	}
	if o.dictPath != "" {
		cfg.Dictionary.Path = o.dictPath
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg

	o.levelVar.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), o.levelVar))
	return nil
}

func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
