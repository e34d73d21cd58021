package cardstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/conorfennell/medrecall/internal/domain"
)

// ErrCorrupt marks a stored value that is not a card record.
var ErrCorrupt = errors.New("corrupt card record")

// record is the persisted JSON shape.
type record struct {
	Text        string `json:"text"`
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation"`
	NextReview  int64  `json:"nextReview"`
	Reviews     int    `json:"reviews"`
	Source      string `json:"source"`
}

// stored is what decode accepts. The schedule fields are kept raw so a value
// of the wrong type defaults instead of failing the whole record.
type stored struct {
	Text          string          `json:"text"`
	Answer        string          `json:"answer"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
	NextReview    json.RawMessage `json:"nextReview"`
	Reviews       json.RawMessage `json:"reviews"`
	Source        string          `json:"source"`
}

func encode(c domain.Card) (string, error) {
	b, err := json.Marshal(record{
		Text:        c.Text,
		Answer:      c.Answer,
		Explanation: c.Explanation,
		NextReview:  c.NextReview,
		Reviews:     c.Reviews,
		Source:      c.Source,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode card %s: %w", c.ID, err)
	}
	return string(b), nil
}

// decode applies the defaulting rules: absent, null or non-numeric nextReview
// and reviews are 0, negatives clamp to 0, values past the integer range clamp
// to its maximum, correct_answer fills a missing answer.
func decode(id, raw string) (domain.Card, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return domain.Card{}, fmt.Errorf("%w %s: empty value", ErrCorrupt, id)
	}

	var r stored
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Card{}, fmt.Errorf("%w %s: %v", ErrCorrupt, id, err)
	}

	c := domain.Card{
		ID:          id,
		Text:        r.Text,
		Answer:      r.Answer,
		Explanation: r.Explanation,
		Source:      r.Source,
		NextReview:  clampInt(number(r.NextReview), math.MaxInt64),
		Reviews:     int(clampInt(number(r.Reviews), math.MaxInt)),
	}
	if c.Answer == "" {
		c.Answer = r.CorrectAnswer
	}
	return c, nil
}

// number reads a JSON number or a numeric string; anything else is 0.
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

func clampInt(f float64, limit int64) int64 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= float64(limit):
		return limit
	}
	return int64(f)
}

// resetRecord sets nextReview to 0 in a raw record and keeps every other
// field, unknown ones included, as stored.
func resetRecord(raw string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", err
	}
	fields["nextReview"] = json.RawMessage("0")
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
