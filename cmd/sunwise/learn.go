package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/config"
	"github.com/Veraticus/sunwise/internal/matcher"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/service"
	"github.com/spf13/cobra"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Teach the matcher from a quote without the review screen",
		Long:  `Confirm or correct a single hit from the command line, or show what has been learned.`,
	}

	cmd.AddCommand(learnConfirmCmd())
	cmd.AddCommand(learnCorrectCmd())
	cmd.AddCommand(learnShowCmd())

	return cmd
}

// learnSession is a matcher over one document, ready to accept feedback.
type learnSession struct {
	store    service.Storage
	recorder service.FeedbackRecorder
	matcher  *matcher.SmartMatcher
	path     string
	hits     []model.MatchHit
}

func openLearnSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, ephemeral bool) (*learnSession, error) {
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := func() (*learnSession, error) {
		products, err := loadCatalog(ctx, store, cfg)
		if err != nil {
			return nil, err
		}
		m, err := newMatcher(ctx, store, products, ephemeral)
		if err != nil {
			return nil, err
		}
		text, err := readDocument(cmd.InOrStdin(), path)
		if err != nil {
			return nil, err
		}
		hits, err := m.Match(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to match %s: %w", path, err)
		}
		return &learnSession{
			store:    store,
			recorder: feedbackRecorder(store, ephemeral),
			matcher:  m,
			path:     path,
			hits:     hits,
		}, nil
	}()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

func (s *learnSession) hit(productID string) (model.MatchHit, error) {
	for _, h := range s.hits {
		if h.ProductID == productID {
			return h, nil
		}
	}
	return model.MatchHit{}, common.NewUserError(
		fmt.Sprintf("%s was not matched in %s; run 'sunwise match %s' to see the hits", productID, s.path, s.path),
		common.ErrNotFound)
}

// report prints the outcome of a learn call and records the audit event
// unless the session is ephemeral.
// Persistence failures are shown as warnings since the decision still applied in memory.
func (s *learnSession) report(ctx context.Context, w io.Writer, learnErr error, event *model.FeedbackEvent, done string) error {
	if learnErr != nil && !errors.Is(learnErr, matcher.ErrPersistFailed) {
		return learnErr
	}
	if s.recorder != nil {
		if err := s.recorder.RecordFeedback(ctx, event); err != nil {
			if _, werr := fmt.Fprintln(w, cli.FormatWarning("Feedback log not updated: "+err.Error())); werr != nil {
				return werr
			}
		}
	}
	if learnErr != nil {
		_, err := fmt.Fprintln(w, cli.FormatWarning(done+", but it could not be saved: "+learnErr.Error()))
		return err
	}
	_, err := fmt.Fprintln(w, cli.FormatSuccess(done))
	return err
}

func learnConfirmCmd() *cobra.Command {
	var (
		token     string
		ephemeral bool
	)

	cmd := &cobra.Command{
		Use:   "confirm <file> <product-id>",
		Short: "Confirm that a product was correctly matched",
		Long: `Confirm the hit for product-id in file. The matched text, or --token when the
quote spelled it differently, becomes an alias and learned regex for the product.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openLearnSession(ctx, cmd, cfg, args[0], ephemeral)
			if err != nil {
				return err
			}
			defer func() { _ = s.store.Close() }()

			hit, err := s.hit(args[1])
			if err != nil {
				return err
			}

			learnErr := s.matcher.LearnConfirm(ctx, hit, token)
			event := model.NewFeedbackEvent(model.FeedbackConfirm, hit, "", token, s.path)
			done := fmt.Sprintf("Confirmed %s (threshold for %s now %.2f)",
				hit.Product.DisplayName(), hit.Product.Brand, s.matcher.AutoAcceptThreshold(hit.Product.Brand))
			return s.report(ctx, cmd.OutOrStdout(), learnErr, event, done)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "the product text as it appeared in the quote")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "learn in memory for this run only; nothing is saved or logged")

	return cmd
}

func learnCorrectCmd() *cobra.Command {
	var (
		token     string
		ephemeral bool
	)

	cmd := &cobra.Command{
		Use:   "correct <file> <false-product-id> <true-product-id>",
		Short: "Correct a wrong match",
		Long: `Record that the hit for false-product-id in file actually named
true-product-id. The false brand's auto-accept threshold tightens and the matched
text, or --token, is learned for the true product.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openLearnSession(ctx, cmd, cfg, args[0], ephemeral)
			if err != nil {
				return err
			}
			defer func() { _ = s.store.Close() }()

			hit, err := s.hit(args[1])
			if err != nil {
				return err
			}
			truth, ok := s.matcher.Product(args[2])
			if !ok {
				return common.NewUserError(fmt.Sprintf("Unknown product %q", args[2]), matcher.ErrUnknownProduct)
			}
			if truth.ID == hit.ProductID {
				return common.NewUserError("The true product is the matched product; use 'sunwise learn confirm' instead", matcher.ErrUnknownProduct)
			}

			learnErr := s.matcher.LearnCorrection(ctx, hit, truth, token)
			event := model.NewFeedbackEvent(model.FeedbackCorrect, hit, truth.ID, token, s.path)
			done := fmt.Sprintf("Corrected %s → %s (threshold for %s now %.2f)",
				hit.ProductID, truth.ID, hit.Product.Brand, s.matcher.AutoAcceptThreshold(hit.Product.Brand))
			return s.report(ctx, cmd.OutOrStdout(), learnErr, event, done)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "the product text as it appeared in the quote")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "learn in memory for this run only; nothing is saved or logged")

	return cmd
}

func learnShowCmd() *cobra.Command {
	var feedbackLimit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show learned weights, thresholds and rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			state, err := store.LoadLearningState(ctx)
			if err != nil {
				return fmt.Errorf("failed to load learning state: %w", err)
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, cli.RenderLearningState(state)); err != nil {
				return err
			}
			if feedbackLimit <= 0 {
				return nil
			}

			events, err := store.GetFeedback(ctx, feedbackLimit)
			if err != nil {
				return fmt.Errorf("failed to load feedback: %w", err)
			}
			return printFeedback(out, events)
		},
	}

	cmd.Flags().IntVar(&feedbackLimit, "feedback", 10, "number of recent feedback events to show (0 to hide)")

	return cmd
}

func printFeedback(w io.Writer, events []model.FeedbackEvent) error {
	if _, err := fmt.Fprintln(w, "\n"+cli.FormatTitle("Recent feedback")); err != nil {
		return err
	}
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, cli.SubtleStyle.Render("No feedback recorded yet."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range events {
		product := e.ProductID
		if e.Kind == model.FeedbackCorrect {
			product += " → " + e.TrueProductID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%q\t%.2f\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			strings.ToUpper(string(e.Kind)),
			product,
			e.RawToken,
			e.Score,
			e.Source)
	}
	return tw.Flush()
}
