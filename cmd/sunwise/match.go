package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/matcher"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type documentHits struct {
	path string
	hits []model.MatchHit
}

func matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <file>...",
		Short: "Find catalog products in quote text",
		Long: `Scan the text of one or more installer quotes for catalog products and print
the ranked hits. A ✓ marks hits at or above their brand's auto-accept threshold.
Use "-" to read a single document from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Matching")

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
			m, err := newMatcher(ctx, store, products, false)
			if err != nil {
				return err
			}

			results, err := matchDocuments(ctx, cmd, m, args)
			if handler.WasInterrupted() {
				return nil
			}
			if err != nil {
				return err
			}

			return printDocumentHits(cmd.OutOrStdout(), results, m.AutoAcceptThreshold)
		},
	}
}

func matchDocuments(ctx context.Context, cmd *cobra.Command, m *matcher.SmartMatcher, paths []string) ([]documentHits, error) {
	var bar *progressbar.ProgressBar
	if len(paths) > 1 {
		bar = newProgressBar(cmd.ErrOrStderr(), len(paths), "Matching documents...")
	}

	results := make([]documentHits, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		text, err := readDocument(cmd.InOrStdin(), path)
		if err != nil {
			return results, err
		}
		hits, err := m.Match(ctx, text)
		if err != nil {
			return results, fmt.Errorf("failed to match %s: %w", path, err)
		}
		slog.Debug("Matched document", "path", path, "hits", len(hits))
		results = append(results, documentHits{path: path, hits: hits})

		if bar != nil {
			advance(bar)
		}
	}
	return results, nil
}

func printDocumentHits(w io.Writer, results []documentHits, threshold func(string) float64) error {
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w, cli.FormatTitle(r.path)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, cli.RenderHits(r.hits, threshold)); err != nil {
			return err
		}
	}
	return nil
}

// readDocument reads a quote from path, or stdin when path is "-".
func readDocument(stdin io.Reader, path string) (string, error) {
	text, err := cli.ReadDocument(path, stdin)
	if err != nil {
		if errors.Is(err, cli.ErrEmptyDocument) {
			return "", common.NewUserError(path+" contains no text", err)
		}
		return "", common.NewUserError("Could not read "+path, err)
	}
	return text, nil
}
