package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/dictionary/postgres"
)

func newImportDictCmd(root *rootOptions) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import-dict [file]",
		Short: "Load a CMU-format dictionary into PostgreSQL",
		Long: `Parse a CMU-format pronouncing dictionary and replace the contents of the
dictionary_entries table with it. The file defaults to dictionary.path and the
DSN to dictionary.postgres_dsn.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			path := cfg.Dictionary.Path
			if len(args) == 1 {
				path = args[0]
			}
			if dsn == "" {
				dsn = cfg.Dictionary.PostgresDSN
			}
			if dsn == "" {
				return fmt.Errorf("import-dict: --dsn or dictionary.postgres_dsn is required")
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("import-dict: %w", err)
			}
			defer f.Close()
			entries, stats, err := dictionary.ParseCMU(f, dictionary.WithVariants(cfg.Dictionary.KeepVariants))
			if err != nil {
				return fmt.Errorf("import-dict: parse %q: %w", path, err)
			}

			store, err := postgres.NewStore(cmd.Context(), dsn)
			if err != nil {
				return fmt.Errorf("import-dict: %w", err)
			}
			defer store.Close()

			n, err := store.Import(cmd.Context(), entries)
			if err != nil {
				return fmt.Errorf("import-dict: %w", err)
			}
			slog.Info("dictionary imported", "path", path, "stored", n, "parsed", stats.Entries, "variants", stats.Variants, "malformed", stats.Malformed)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (overrides dictionary.postgres_dsn)")
	return cmd
}
