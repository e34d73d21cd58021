package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/conorfennell/medrecall/internal/capture"
	"github.com/conorfennell/medrecall/internal/cardstore"
	"github.com/conorfennell/medrecall/internal/config"
	"github.com/conorfennell/medrecall/internal/kv"
	"github.com/conorfennell/medrecall/internal/logging"
	"github.com/conorfennell/medrecall/internal/output"
	"github.com/conorfennell/medrecall/internal/redisstore"
	"github.com/conorfennell/medrecall/internal/storage"
)

// app is the state shared by every command once flags are parsed.
type app struct {
	cfgPath string
	noColor bool
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "medrecall",
		Short: "Spaced repetition for missed quiz questions",
		Long: `medrecall turns the questions you get wrong in a quiz into flashcards
and schedules them for review with fixed intervals (1m, 2d, 4d, 7d).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "path to a YAML config file")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.String("store", "", "storage driver: memory, sqlite or redis (default sqlite)")
	pf.String("db", "", "SQLite database file (default medrecall.db)")
	pf.String("redis-url", "", "Redis URL (default redis://localhost:6379/0)")
	pf.String("capture-policy", "", "re-capture policy: skip or refresh (default skip)")
	pf.String("bank-dir", "", "question bank directory (default bank)")
	pf.String("bank-url", "", "git URL the question bank is mirrored from")
	pf.String("log-level", "", "log level: debug, info, warn or error (default info)")
	pf.String("log-format", "", "log format: text or json (default text)")

	root.AddCommand(
		newServeCmd(a),
		newCaptureCmd(a),
		newReviewCmd(a),
		newListCmd(a),
		newResetCmd(a),
		newBankCmd(a),
	)
	return root
}

func (a *app) printer(w io.Writer) *output.Printer {
	return output.NewPrinter(w, !a.noColor)
}

// openStore opens the configured backend. The returned func releases it.
func (a *app) openStore(ctx context.Context) (*cardstore.Store, func() error, error) {
	switch a.cfg.Store.Driver {
	case "memory":
		a.logger.Warn("Using the in-memory store; cards are lost on exit")
		return cardstore.New(kv.NewMemory(), a.logger), func() error { return nil }, nil
	case "redis":
		rs, err := redisstore.New(a.cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, err
		}
		a.logger.Debug("Redis store opened", "url", a.cfg.Store.RedisURL)
		return cardstore.New(rs, a.logger), rs.Close, nil
	case "sqlite":
		db, err := storage.Open(a.cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("Database opened", "path", a.cfg.Store.Path)
		return cardstore.New(db, a.logger), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
}

func (a *app) capturer(store *cardstore.Store) *capture.Capturer {
	return capture.New(store,
		capture.WithPolicy(capture.Policy(a.cfg.Capture.Policy)),
		capture.WithCleaner(capture.NewCleaner(a.cfg.Capture.MaxExplanation, a.cfg.Capture.Signatures)),
		capture.WithLogger(a.logger),
	)
}
