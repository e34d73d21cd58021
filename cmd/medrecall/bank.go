package main

import (
	"encoding/json"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conorfennell/medrecall/internal/bank"
	"github.com/conorfennell/medrecall/internal/output"
)

func newBankCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage the local question bank",
	}

	var asJSON bool
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Clone or pull the question bank and list its quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, errs, err := bank.Sync(cmd.Context(), a.bankConfig(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.printManifest(cmd, manifest, errs, asJSON)
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List the quizzes in the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := bank.Root(a.bankConfig())
			if err != nil {
				return err
			}
			manifest, errs := bank.Scan(root)
			return a.printManifest(cmd, manifest, errs, asJSON)
		},
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	cmd.AddCommand(sync, list)
	return cmd
}

func (a *app) bankConfig() bank.Config {
	return bank.Config{Dir: a.cfg.Bank.Dir, URL: a.cfg.Bank.URL}
}

func (a *app) printManifest(cmd *cobra.Command, manifest bank.Manifest, errs []error, asJSON bool) error {
	p := a.printer(cmd.ErrOrStderr())
	for _, err := range errs {
		p.Warn("%v", err)
	}

	if asJSON {
		if manifest == nil {
			manifest = bank.Manifest{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}

	table := output.NewTable(cmd.OutOrStdout(), "file", "title", "questions")
	total := 0
	for _, e := range manifest {
		table.AddRow(filepath.ToSlash(e.File), e.Title, strconv.Itoa(e.Questions))
		total += e.Questions
	}
	if err := table.Render(); err != nil {
		return err
	}
	a.printer(cmd.OutOrStdout()).Info("\n%d quizzes, %d questions", len(manifest), total)
	return nil
}
