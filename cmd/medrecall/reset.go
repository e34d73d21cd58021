package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/conorfennell/medrecall/internal/review"
)

func newResetCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Make every card due again",
		Long: `Reset sets every card's next review to now. It is refused while cards
are still due unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			p := a.printer(cmd.OutOrStdout())
			if force {
				n, err := store.ResetAll(cmd.Context())
				if err != nil {
					return err
				}
				p.Success("Reset %d cards.", n)
				return nil
			}

			sess := review.NewSession(store, review.WithLogger(a.logger))
			if err := sess.Load(cmd.Context()); err != nil {
				return err
			}
			n, err := sess.Reset(cmd.Context())
			if errors.Is(err, review.ErrNotEmpty) {
				p.Warn("%d cards are still due; review them first or use --force.", sess.Remaining())
				return err
			}
			if err != nil {
				return err
			}
			p.Success("Reset %d cards.", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reset even while cards are due")
	return cmd
}
