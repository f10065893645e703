package main

import (
	"fmt"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/tui"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Interactively confirm or correct matches in a quote",
		Long: `Open a review screen over the hits found in a quote. Press y to confirm a
hit, c to correct it by typing the id of the product that was actually quoted,
and q to quit. Every decision updates the matcher's learning state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			products, err := loadCatalog(ctx, store, cfg)
			if err != nil {
				return err
			}
			m, err := newMatcher(ctx, store, products, ephemeral)
			if err != nil {
				return err
			}

			text, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			hits, err := m.Match(ctx, text)
			if err != nil {
				return fmt.Errorf("failed to match %s: %w", args[0], err)
			}

			summary, err := tui.RunReview(ctx, m, hits,
				tui.WithRecorder(feedbackRecorder(store, ephemeral)),
				tui.WithSource(args[0]))
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("Reviewed %s: %d confirmed, %d corrected, %d skipped",
				args[0], summary.Confirmed, summary.Corrected, summary.Skipped)
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, cli.FormatSuccess(msg)); err != nil {
				return err
			}
			if summary.Unsaved > 0 {
				_, err = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d decisions could not be saved and apply to this session only", summary.Unsaved)))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "learn in memory for this run only; nothing is saved or logged")

	return cmd
}
