// Package cardstore is the typed accessor for card records kept in a kv.Store.
// Nothing outside this package reads or writes raw keys.
package cardstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conorfennell/medrecall/internal/domain"
	"github.com/conorfennell/medrecall/internal/kv"
	"github.com/conorfennell/medrecall/internal/metrics"
)

const (
	// Prefix namespaces card records from other persisted settings.
	Prefix = "srs_"
	// ThemeKey holds the light/dark preference shared with the study site.
	ThemeKey = "medtrix-theme"
)

// Store reads and writes cards. It holds no state besides the backing store.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

// New wraps a kv.Store. A nil logger falls back to slog.Default().
func New(store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: store, logger: logger}
}

// Key returns the storage key of a card id.
func Key(id string) string {
	return Prefix + id
}

// Get returns the card with the given id, or nil if there is none.
// A stored value that does not parse yields an error wrapping ErrCorrupt.
func (s *Store) Get(ctx context.Context, id string) (*domain.Card, error) {
	raw, ok, err := s.kv.Get(ctx, Key(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	c, err := decode(id, raw)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Put replaces the stored record of card.ID.
func (s *Store) Put(ctx context.Context, card domain.Card) error {
	if card.ID == "" {
		return errors.New("failed to put card: empty id")
	}
	raw, err := encode(card)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, Key(card.ID), raw); err != nil {
		return fmt.Errorf("failed to put card %s: %w", card.ID, err)
	}
	return nil
}

// ForEach calls fn for every parseable card. Corrupt records are logged and
// skipped. Enumeration stops at the first error returned by fn.
func (s *Store) ForEach(ctx context.Context, fn func(domain.Card) error) error {
	keys, err := s.kv.Keys(ctx, Prefix)
	if err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}

	for _, key := range keys {
		id := strings.TrimPrefix(key, Prefix)
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Failed to read card, skipping", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		card, err := decode(id, raw)
		if err != nil {
			metrics.CorruptRecordsTotal.Inc()
			s.logger.Error("Corrupt card", "key", key, "error", err)
			continue
		}
		if err := fn(card); err != nil {
			return err
		}
	}
	return nil
}

// All returns every parseable card.
func (s *Store) All(ctx context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	err := s.ForEach(ctx, func(c domain.Card) error {
		cards = append(cards, c)
		return nil
	})
	return cards, err
}

// ResetAll makes every card due immediately and returns how many were reset.
// Only nextReview is rewritten; other stored fields are kept as they are.
// Keys outside the card namespace and corrupt records are never touched.
func (s *Store) ResetAll(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, Prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list cards: %w", err)
	}

	n := 0
	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return n, fmt.Errorf("failed to reset deck: %w", err)
		}
		if !ok {
			continue
		}
		if _, err := decode(strings.TrimPrefix(key, Prefix), raw); err != nil {
			s.logger.Warn("Skipping corrupt card on reset", "key", key, "error", err)
			continue
		}
		patched, err := resetRecord(raw)
		if err != nil {
			s.logger.Warn("Skipping corrupt card on reset", "key", key, "error", err)
			continue
		}
		if err := s.kv.Set(ctx, key, patched); err != nil {
			return n, fmt.Errorf("failed to reset deck: %w", err)
		}
		n++
	}
	metrics.ResetsTotal.Inc()
	return n, nil
}

// Theme returns the stored theme preference, "" when unset.
func (s *Store) Theme(ctx context.Context) string {
	v, ok, err := s.kv.Get(ctx, ThemeKey)
	if err != nil || !ok {
		return ""
	}
	return v
}
