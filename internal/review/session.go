// Package review runs a review session over the due cards of a card store.
//
// A session starts in Loading, builds a shuffled queue of due cards and moves
// to Reviewing, or to Empty when nothing is due. Rating a card persists its
// next due time and pops it; a card rated Again waits for the next session.
// Sessions are never persisted: every page visit starts a new one.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/conorfennell/medrecall/internal/cardstore"
	"github.com/conorfennell/medrecall/internal/domain"
	"github.com/conorfennell/medrecall/internal/metrics"
	"github.com/conorfennell/medrecall/internal/scheduler"
)

// State is the outer state of a session.
type State int

const (
	Loading State = iota
	Reviewing
	Empty
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Reviewing:
		return "reviewing"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrNoCard is returned when an action needs a front card and the queue is empty.
	ErrNoCard = errors.New("no card under review")
	// ErrNotRevealed is returned by Rate before the front card's answer is shown.
	ErrNotRevealed = errors.New("reveal the answer before rating")
	// ErrNotEmpty is returned by Reset outside the Empty state.
	ErrNotEmpty = errors.New("deck reset is only available once the queue is empty")
)

// Session is safe for concurrent use; operations are serialised.
type Session struct {
	mu       sync.Mutex
	store    *cardstore.Store
	now      func() time.Time
	shuffle  func(n int, swap func(i, j int))
	logger   *slog.Logger
	state    State
	queue    []domain.Card
	revealed bool
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand makes the queue order reproducible.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.shuffle = r.Shuffle }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession returns a session in the Loading state. Call Load to fill the queue.
func NewSession(store *cardstore.Store, opts ...Option) *Session {
	s := &Session{
		store:   store,
		now:     time.Now,
		shuffle: rand.Shuffle,
		logger:  slog.Default(),
		state:   Loading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load enumerates the store, keeps the cards due now and shuffles them.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	s.state = Loading
	s.queue = nil
	s.revealed = false

	now := s.now()
	var due []domain.Card
	err := s.store.ForEach(ctx, func(c domain.Card) error {
		if c.IsDue(now) {
			due = append(due, c)
		}
		return nil
	})
	if err != nil {
		s.state = Empty
		return fmt.Errorf("failed to load deck: %w", err)
	}

	// Uniform random order interleaves subjects.
	s.shuffle(len(due), func(i, j int) { due[i], due[j] = due[j], due[i] })
	s.queue = due
	metrics.DueCards.Set(float64(len(due)))
	s.logger.Debug("Deck loaded", "due", len(due))
	s.settle()
	return nil
}

func (s *Session) settle() {
	s.revealed = false
	if len(s.queue) == 0 {
		s.state = Empty
		return
	}
	s.state = Reviewing
}

// State returns the outer state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Revealed reports whether the front card's answer side is showing.
func (s *Session) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// Remaining is the number of cards left in the queue, the front card included.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Queue returns a copy of the queue in presentation order.
func (s *Session) Queue() []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Card(nil), s.queue...)
}

// Current returns the front card.
func (s *Session) Current() (domain.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Reviewing || len(s.queue) == 0 {
		return domain.Card{}, false
	}
	return s.queue[0], true
}

// Reveal shows the answer side of the front card. The outer state is unchanged.
func (s *Session) Reveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Reviewing {
		return ErrNoCard
	}
	s.revealed = true
	return nil
}

// Rate grades the front card, persists its next due time and pops it. The
// answer must have been revealed first. When the write fails the card stays
// at the front and the error is returned.
func (s *Session) Rate(ctx context.Context, r scheduler.Rating) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Reviewing || len(s.queue) == 0 {
		return domain.Card{}, ErrNoCard
	}
	if !s.revealed {
		return domain.Card{}, ErrNotRevealed
	}

	front := s.queue[0]
	// Start from the stored record so content refreshed since Load is kept.
	base := front
	if stored, err := s.store.Get(ctx, front.ID); err != nil {
		s.logger.Warn("Rating from queued copy", "id", front.ID, "error", err)
	} else if stored != nil {
		base = *stored
	}

	updated, err := scheduler.Apply(base, r, s.now())
	if err != nil {
		return domain.Card{}, err
	}
	if err := s.store.Put(ctx, updated); err != nil {
		return domain.Card{}, fmt.Errorf("failed to save rating: %w", err)
	}
	metrics.RatingsTotal.WithLabelValues(r.String()).Inc()

	s.queue = s.queue[1:]
	s.settle()
	return updated, nil
}

// Reset makes every stored card due again and reloads. Only valid once the
// queue is empty.
func (s *Session) Reset(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Empty {
		return 0, ErrNotEmpty
	}
	n, err := s.store.ResetAll(ctx)
	if err != nil {
		return n, err
	}
	s.logger.Info("Deck reset", "cards", n)
	return n, s.load(ctx)
}
