// Package capture turns incorrectly answered quiz questions into cards.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/medrecall/internal/cardid"
	"github.com/conorfennell/medrecall/internal/cardstore"
	"github.com/conorfennell/medrecall/internal/domain"
	"github.com/conorfennell/medrecall/internal/metrics"
)

// Policy decides what capturing an already-known question does.
type Policy string

const (
	// PolicySkip leaves an existing card untouched.
	PolicySkip Policy = "skip"
	// PolicyRefresh replaces the content fields of an existing card and keeps
	// its schedule.
	PolicyRefresh Policy = "refresh"
)

// Outcome is what a capture did.
type Outcome string

const (
	Inserted  Outcome = "inserted"
	Refreshed Outcome = "refreshed"
	Skipped   Outcome = "skipped"
	Failed    Outcome = "failed"
)

// Result reports the card id (when one could be derived) and the outcome.
type Result struct {
	ID      string  `json:"id,omitempty"`
	Outcome Outcome `json:"outcome"`
}

// Capturer upserts cards for missed questions.
type Capturer struct {
	store    *cardstore.Store
	policy   Policy
	cleaner  *Cleaner
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithPolicy sets the re-capture policy. Unknown policies fall back to PolicySkip.
func WithPolicy(p Policy) Option {
	return func(c *Capturer) {
		if p == PolicyRefresh {
			c.policy = PolicyRefresh
		}
	}
}

// WithCleaner replaces the default explanation cleaner.
func WithCleaner(cl *Cleaner) Option {
	return func(c *Capturer) { c.cleaner = cl }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) { c.logger = l }
}

// New returns a Capturer writing to store.
func New(store *cardstore.Store, opts ...Option) *Capturer {
	c := &Capturer{
		store:    store,
		policy:   PolicySkip,
		cleaner:  defaultCleaner,
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the active re-capture policy.
func (c *Capturer) Policy() Policy {
	return c.policy
}

// Capture records questions[index] as a missed question from the quiz titled
// title. It never returns an error: failures are logged and reported as Failed
// so the quiz flow is never interrupted. It performs at most one store write.
func (c *Capturer) Capture(ctx context.Context, index int, questions []domain.Question, title string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("SRS capture failed", "index", index, "panic", r)
			res = Result{ID: res.ID, Outcome: Failed}
		}
		metrics.CapturesTotal.WithLabelValues(string(res.Outcome)).Inc()
	}()

	res, err := c.capture(ctx, index, questions, title)
	if err != nil {
		c.logger.Error("SRS capture failed", "index", index, "id", res.ID, "error", err)
		return Result{ID: res.ID, Outcome: Failed}
	}
	c.logger.Info("Captured mistake", "question", index+1, "source", title, "id", res.ID, "outcome", res.Outcome)
	return res
}

func (c *Capturer) capture(ctx context.Context, index int, questions []domain.Question, title string) (Result, error) {
	if index < 0 || index >= len(questions) {
		return Result{}, fmt.Errorf("question index %d out of range (%d questions)", index, len(questions))
	}
	q := questions[index]
	if err := c.validate.Struct(q); err != nil {
		return Result{}, fmt.Errorf("invalid question: %w", err)
	}

	text := c.cleaner.PlainText(q.Text)
	id, err := cardid.Derive(text)
	if err != nil {
		return Result{}, err
	}
	res := Result{ID: id}

	existing, err := c.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, cardstore.ErrCorrupt) {
			return res, err
		}
		c.logger.Warn("Replacing corrupt card", "id", id, "error", err)
		existing = nil
	}

	if existing != nil && c.policy == PolicySkip {
		res.Outcome = Skipped
		return res, nil
	}

	explanation := c.cleaner.Clean(ExplanationSource(q))
	if explanation == "" {
		explanation = NoExplanation
	}
	card := domain.Card{
		ID:          id,
		Text:        text,
		Answer:      answerOf(q),
		Explanation: explanation,
		Source:      SourceLabel(title),
	}

	res.Outcome = Inserted
	if existing != nil {
		card.NextReview = existing.NextReview
		card.Reviews = existing.Reviews
		res.Outcome = Refreshed
	}

	if err := c.store.Put(ctx, card); err != nil {
		return res, err
	}
	return res, nil
}

// answerOf prefers the explicit correct_answer, then the first option marked correct.
func answerOf(q domain.Question) string {
	if q.CorrectAnswer != "" {
		return q.CorrectAnswer
	}
	for _, o := range q.Options {
		if o.Correct {
			return o.Text
		}
	}
	return ""
}
