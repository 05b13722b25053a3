package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/confab/pkg/phoneme"
)

func newOdditiesCmd(root *rootOptions) *cobra.Command {
	var from, to string
	var limit int
	cmd := &cobra.Command{
		Use:   "oddities",
		Short: "List word pairs that differ by a single swapped sound",
		Long: `List dictionary words whose pronunciation becomes another dictionary word
when every FROM unit is replaced by TO. The default TH -> DH swap finds pairs
like thigh / thy and teeth / teethe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dict, store, err := openDictionary(cmd.Context(), root.cfg.Dictionary)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			pairs := dict.Partners(phoneme.Unit(strings.ToUpper(from)), phoneme.Unit(strings.ToUpper(to)))
			out := cmd.OutOrStdout()
			for i, p := range pairs {
				if limit > 0 && i == limit {
					break
				}
				fmt.Fprintf(out, "%s\t%s\t%s -> %s\n", strings.ToLower(p.Word), strings.ToLower(p.Partner), p.Phonetics, p.Swapped)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d pairs\n", len(pairs))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "TH", "unit to replace")
	cmd.Flags().StringVar(&to, "to", "DH", "replacement unit")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many pairs (0 = all)")
	return cmd
}
