package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/medrecall/internal/output"
	"github.com/conorfennell/medrecall/internal/review"
	"github.com/conorfennell/medrecall/internal/scheduler"
)

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review due cards in the terminal",
		Long: `Review the cards due now in random order. Press Enter to reveal the
answer, then rate your recall: 1/a again, 2/h hard, 3/g good, 4/e easy.
Type q to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			sess := review.NewSession(store, review.WithLogger(a.logger))
			if err := sess.Load(cmd.Context()); err != nil {
				return err
			}

			p := a.printer(cmd.OutOrStdout())
			in := bufio.NewReader(cmd.InOrStdin())
			total := sess.Remaining()
			for i := 1; ; i++ {
				card, ok := sess.Current()
				if !ok {
					break
				}
				p.Header("\n[%d/%d] %s", i, total, card.Source)
				p.Info("%s", card.Text)
				p.Info("Press Enter to show the answer...")
				if _, err := readLine(in); err != nil {
					return nil
				}
				if err := sess.Reveal(); err != nil {
					return err
				}
				if card.Answer != "" {
					p.Success("Answer: %s", card.Answer)
				}
				p.Info("%s", card.Explanation)

				r, err := promptRating(in, p)
				if err != nil {
					return nil
				}
				rated, err := sess.Rate(cmd.Context(), r)
				if err != nil {
					return err
				}
				p.Info("Next review %s.", scheduler.DueLabel(rated, timeNow()))
			}

			if total == 0 {
				p.Success("No cards due. All caught up!")
			} else {
				p.Success("\nReview session complete!")
			}
			return nil
		},
	}
}

var errQuit = errors.New("quit")

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "q") {
		return "", errQuit
	}
	return line, nil
}

var ratingKeys = map[string]scheduler.Rating{
	"a": scheduler.Again,
	"h": scheduler.Hard,
	"g": scheduler.Good,
	"e": scheduler.Easy,
}

func promptRating(in *bufio.Reader, p *output.Printer) (scheduler.Rating, error) {
	var opts []string
	for _, r := range scheduler.Ratings() {
		opts = append(opts, fmt.Sprintf("%d %s (%s)", int(r), r, scheduler.Label(r)))
	}
	for {
		p.Info("Rate: %s", strings.Join(opts, " | "))
		line, err := readLine(in)
		if err != nil {
			return 0, err
		}
		if r, ok := ratingKeys[strings.ToLower(line)]; ok {
			return r, nil
		}
		if r, err := scheduler.ParseRating(line); err == nil {
			return r, nil
		}
		p.Warn("Invalid rating %q", line)
	}
}
