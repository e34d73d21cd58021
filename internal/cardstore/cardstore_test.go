package cardstore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/medrecall/internal/domain"
	"github.com/conorfennell/medrecall/internal/kv"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	card := domain.Card{
		ID:          "quiz_abc",
		Text:        "Which nerve?",
		Answer:      "B",
		Explanation: "Ulnar.",
		Source:      "CEREB Anatomy",
		NextReview:  1700000000123,
		Reviews:     3,
	}
	require.NoError(t, s.Put(ctx, card))

	got, err := s.Get(ctx, "quiz_abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, card, *got)

	missing, err := s.Get(ctx, "quiz_nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPutRejectsEmptyID(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	assert.Error(t, s.Put(context.Background(), domain.Card{Text: "x"}))
}

func TestDecodeDefaults(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		wantNext   int64
		wantViews  int
		wantAnswer string
	}{
		{"missing schedule fields", `{"text":"q"}`, 0, 0, ""},
		{"null nextReview", `{"text":"q","nextReview":null,"reviews":2}`, 0, 2, ""},
		{"negative values clamp", `{"text":"q","nextReview":-5,"reviews":-1}`, 0, 0, ""},
		{"correct_answer alias", `{"text":"q","correct_answer":"C"}`, 0, 0, "C"},
		{"answer wins over alias", `{"text":"q","answer":"A","correct_answer":"C"}`, 0, 0, "A"},
		{"float timestamp", `{"text":"q","nextReview":1.7e12,"reviews":1}`, 1700000000000, 1, ""},
		{"numeric strings", `{"text":"q","nextReview":"1700000000000","reviews":"2"}`, 1700000000000, 2, ""},
		{"zero string", `{"text":"q","nextReview":"0"}`, 0, 0, ""},
		{"wrong types default", `{"text":"q","nextReview":true,"reviews":{"n":1}}`, 0, 0, ""},
		{"out of range clamps", `{"text":"q","nextReview":1e300,"reviews":1e300}`, math.MaxInt64, math.MaxInt, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := decode("id", tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantNext, c.NextReview)
			assert.Equal(t, tc.wantViews, c.Reviews)
			assert.Equal(t, tc.wantAnswer, c.Answer)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	for _, raw := range []string{"", "null", "{not json", `"a string"`, `{"text":42}`} {
		_, err := decode("id", raw)
		assert.True(t, errors.Is(err, ErrCorrupt), "raw %q", raw)
	}
}

func TestForEachSkipsCorruptRecords(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, nil)

	require.NoError(t, s.Put(ctx, domain.Card{ID: "a", Text: "A"}))
	require.NoError(t, mem.Set(ctx, "srs_broken", "{oops"))
	require.NoError(t, s.Put(ctx, domain.Card{ID: "c", Text: "C"}))
	require.NoError(t, mem.Set(ctx, ThemeKey, "dark"))

	cards, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "a", cards[0].ID)
	assert.Equal(t, "c", cards[1].ID)

	_, err = s.Get(ctx, "broken")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestForEachStopsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)
	require.NoError(t, s.Put(ctx, domain.Card{ID: "a", Text: "A"}))
	require.NoError(t, s.Put(ctx, domain.Card{ID: "b", Text: "B"}))

	stop := errors.New("stop")
	calls := 0
	err := s.ForEach(ctx, func(domain.Card) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestResetAllTouchesOnlyCards(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, nil)

	require.NoError(t, s.Put(ctx, domain.Card{ID: "a", Text: "A", NextReview: 5000, Reviews: 2}))
	require.NoError(t, s.Put(ctx, domain.Card{ID: "b", Text: "B", NextReview: 9000, Reviews: 1}))
	require.NoError(t, mem.Set(ctx, ThemeKey, "dark"))
	require.NoError(t, mem.Set(ctx, "read_42", "true"))
	require.NoError(t, mem.Set(ctx, "srs_broken", "{oops"))

	n, err := s.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cards, err := s.All(ctx)
	require.NoError(t, err)
	for _, c := range cards {
		assert.Zero(t, c.NextReview, c.ID)
		assert.NotZero(t, c.Reviews, c.ID)
	}

	theme, _, _ := mem.Get(ctx, ThemeKey)
	assert.Equal(t, "dark", theme)
	read, _, _ := mem.Get(ctx, "read_42")
	assert.Equal(t, "true", read)
	broken, _, _ := mem.Get(ctx, "srs_broken")
	assert.Equal(t, "{oops", broken)
}

func TestResetAllKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, nil)

	raw := `{"text":"q","correct_answer":"C","explanation":"E","nextReview":9000,"reviews":4,"source":"S","tag":"cardio"}`
	require.NoError(t, mem.Set(ctx, Key("x"), raw))

	n, err := s.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, _ := mem.Get(ctx, Key("x"))
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &fields))
	assert.Equal(t, float64(0), fields["nextReview"])
	assert.Equal(t, float64(4), fields["reviews"])
	assert.Equal(t, "C", fields["correct_answer"])
	assert.Equal(t, "cardio", fields["tag"])
	assert.NotContains(t, fields, "answer")
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, nil)

	assert.Equal(t, "", s.Theme(ctx))
	require.NoError(t, mem.Set(ctx, ThemeKey, "dark"))
	assert.Equal(t, "dark", s.Theme(ctx))
}
