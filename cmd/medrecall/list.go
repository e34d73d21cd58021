package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/medrecall/internal/domain"
	"github.com/conorfennell/medrecall/internal/output"
	"github.com/conorfennell/medrecall/internal/scheduler"
)

var timeNow = time.Now

const listTextWidth = 60

type listedCard struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation"`
	Source      string `json:"source"`
	NextReview  int64  `json:"nextReview"`
	Reviews     int    `json:"reviews"`
	Due         bool   `json:"due"`
}

func newListCmd(a *app) *cobra.Command {
	var dueOnly, asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			cards, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			now := timeNow()
			if dueOnly {
				due := cards[:0]
				for _, c := range cards {
					if c.IsDue(now) {
						due = append(due, c)
					}
				}
				cards = due
			}
			sort.Slice(cards, func(i, j int) bool {
				if cards[i].NextReview != cards[j].NextReview {
					return cards[i].NextReview < cards[j].NextReview
				}
				return cards[i].ID < cards[j].ID
			})

			if asJSON {
				listed := make([]listedCard, 0, len(cards))
				for _, c := range cards {
					listed = append(listed, listedCard{
						ID: c.ID, Text: c.Text, Answer: c.Answer, Explanation: c.Explanation,
						Source: c.Source, NextReview: c.NextReview, Reviews: c.Reviews, Due: c.IsDue(now),
					})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listed)
			}

			if len(cards) == 0 {
				a.printer(cmd.OutOrStdout()).Info("No cards.")
				return nil
			}
			table := output.NewTable(cmd.OutOrStdout(), "id", "source", "question", "reviews", "due")
			for _, c := range cards {
				table.AddRow(c.ID, c.Source, shorten(c.Text, listTextWidth), strconv.Itoa(c.Reviews), scheduler.DueLabel(c, now))
			}
			if err := table.Render(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d cards, %d due\n", len(cards), countDue(cards, now))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dueOnly, "due", false, "only cards due now")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func countDue(cards []domain.Card, now time.Time) int {
	n := 0
	for _, c := range cards {
		if c.IsDue(now) {
			n++
		}
	}
	return n
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
