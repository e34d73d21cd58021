package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/medrecall/internal/capture"
	"github.com/conorfennell/medrecall/internal/quiz"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		quizPath string
		testName string
		source   string
		indices  []int
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture missed questions of a quiz file as cards",
		Example: `  medrecall capture --quiz bank/anatomy.json --index 0,4,7
  medrecall capture --quiz bank/hub.html --test "Test 3" --index 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			quizzes, err := quiz.LoadFile(quizPath)
			if err != nil {
				return fmt.Errorf("failed to load quiz: %w", err)
			}
			q, err := selectQuiz(quizzes, testName)
			if err != nil {
				return err
			}
			title := q.Title
			if source != "" {
				title = source
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			c := a.capturer(store)
			p := a.printer(cmd.OutOrStdout())
			failed := 0
			for _, i := range indices {
				res := c.Capture(cmd.Context(), i, q.Questions, title)
				switch res.Outcome {
				case capture.Inserted, capture.Refreshed:
					p.Success("#%d %s %s", i+1, res.Outcome, res.ID)
				case capture.Skipped:
					p.Info("#%d %s %s", i+1, res.Outcome, res.ID)
				default:
					p.Warn("#%d %s", i+1, res.Outcome)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d captures failed", failed, len(indices))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&quizPath, "quiz", "", "quiz file (.json or .html)")
	f.StringVar(&testName, "test", "", "quiz id or title when the file holds several")
	f.StringVar(&source, "source", "", "page title recorded as the card source (default: the quiz title)")
	f.IntSliceVar(&indices, "index", nil, "0-based index of each missed question")
	cmd.MarkFlagRequired("quiz")
	cmd.MarkFlagRequired("index")
	return cmd
}

func selectQuiz(quizzes []quiz.Quiz, name string) (quiz.Quiz, error) {
	if name == "" {
		if len(quizzes) == 1 {
			return quizzes[0], nil
		}
		return quiz.Quiz{}, fmt.Errorf("file holds %d quizzes, pick one with --test: %s", len(quizzes), titles(quizzes))
	}
	for _, q := range quizzes {
		if q.ID == name || strings.EqualFold(q.Title, name) {
			return q, nil
		}
	}
	return quiz.Quiz{}, fmt.Errorf("no quiz named %q, have: %s", name, titles(quizzes))
}

func titles(quizzes []quiz.Quiz) string {
	names := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		names = append(names, q.Title)
	}
	return strings.Join(names, ", ")
}
