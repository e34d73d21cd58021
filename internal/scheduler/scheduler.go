package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/medrecall/internal/domain"
)

// Rating is the user's self-assessment after revealing a card.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

const day = 24 * time.Hour

// ErrUnknownRating is returned by ParseRating for anything but the four grades.
var ErrUnknownRating = errors.New("unknown rating")

// intervals are fixed; they do not grow with repeated successful reviews.
var intervals = map[Rating]time.Duration{
	Again: time.Minute,
	Hard:  2 * day,
	Good:  4 * day,
	Easy:  7 * day,
}

var names = map[Rating]string{
	Again: "again",
	Hard:  "hard",
	Good:  "good",
	Easy:  "easy",
}

// Ratings lists the grades in button order.
func Ratings() []Rating {
	return []Rating{Again, Hard, Good, Easy}
}

func (r Rating) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// Valid reports whether r is one of the four grades.
func (r Rating) Valid() bool {
	_, ok := intervals[r]
	return ok
}

// ParseRating accepts a grade name ("again".."easy", any case) or its number ("1".."4").
func ParseRating(s string) (Rating, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, n := range names {
		if s == n || s == fmt.Sprint(int(r)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRating, s)
}

// Interval is how long a card rated r stays hidden.
func Interval(r Rating) time.Duration {
	return intervals[r]
}

// Label is the short interval shown on a rating button, e.g. "1m" or "4d".
func Label(r Rating) string {
	d := Interval(r)
	if d < day {
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
	return fmt.Sprintf("%dd", int(d/day))
}

// Apply schedules the next review of card and counts the review.
func Apply(card domain.Card, r Rating, now time.Time) (domain.Card, error) {
	if !r.Valid() {
		return card, fmt.Errorf("%w: %d", ErrUnknownRating, int(r))
	}
	card.NextReview = now.Add(Interval(r)).UnixMilli()
	card.Reviews++
	return card, nil
}

// DueLabel describes when card is next due relative to now: "now" or a
// coarse offset such as "in 3d", "in 5h" or "in 12m".
func DueLabel(card domain.Card, now time.Time) string {
	if card.IsDue(now) {
		return "now"
	}
	d := time.UnixMilli(card.NextReview).Sub(now)
	switch {
	case d >= day:
		return fmt.Sprintf("in %dd", int(d/day))
	case d >= time.Hour:
		return fmt.Sprintf("in %dh", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("in %dm", int(d/time.Minute))
	}
	return "in <1m"
}
