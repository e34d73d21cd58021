package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quizFile = `{
  "meta": {"id": "t1", "title": "CEREB Anatomy - Test 1", "total_questions": 2},
  "questions": [
    {"text": "Which nerve supplies the thenar muscles?", "explanation": "<p>Median nerve @dams_new_robot</p>", "correct_answer": "B"},
    {"text": "Root value of the musculocutaneous nerve?"}
  ]
}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--no-color"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func listJSON(t *testing.T, db string, extra ...string) []listedCard {
	t.Helper()
	out, err := run(t, "", append([]string{"list", "--db", db, "--json"}, extra...)...)
	require.NoError(t, err)
	var cards []listedCard
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	return cards
}

func TestCaptureReviewReset(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cards.db")
	quizPath := filepath.Join(dir, "anatomy.json")
	require.NoError(t, os.WriteFile(quizPath, []byte(quizFile), 0o644))

	out, err := run(t, "", "capture", "--db", db, "--quiz", quizPath, "--index", "0,1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "inserted"))

	cards := listJSON(t, db)
	require.Len(t, cards, 2)
	for _, c := range cards {
		assert.Equal(t, "CEREB Anatomy", c.Source)
		assert.True(t, c.Due)
	}

	out, err = run(t, "", "capture", "--db", db, "--quiz", quizPath, "--index", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	out, err = run(t, "\ng\n\n4\n", "review", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Answer: B")
	assert.Contains(t, out, "Median nerve")
	assert.Contains(t, out, "Review session complete!")
	assert.Empty(t, listJSON(t, db, "--due"))

	out, err = run(t, "", "reset", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Reset 2 cards.")
	assert.Len(t, listJSON(t, db, "--due"), 2)

	_, err = run(t, "", "reset", "--db", db)
	assert.Error(t, err)
}

func TestCaptureFailure(t *testing.T) {
	dir := t.TempDir()
	quizPath := filepath.Join(dir, "anatomy.json")
	require.NoError(t, os.WriteFile(quizPath, []byte(quizFile), 0o644))

	out, err := run(t, "", "capture", "--store", "memory", "--quiz", quizPath, "--index", "9")
	assert.Error(t, err)
	assert.Contains(t, out, "failed")
}

func TestReviewQuit(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cards.db")
	quizPath := filepath.Join(dir, "anatomy.json")
	require.NoError(t, os.WriteFile(quizPath, []byte(quizFile), 0o644))
	_, err := run(t, "", "capture", "--db", db, "--quiz", quizPath, "--index", "0")
	require.NoError(t, err)

	_, err = run(t, "\nbogus\nq\n", "review", "--db", db)
	require.NoError(t, err)
	assert.Len(t, listJSON(t, db, "--due"), 1)
}

func TestListTable(t *testing.T) {
	out, err := run(t, "", "list", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "No cards.")
}

func TestBankList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anatomy.json"), []byte(quizFile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	out, err := run(t, "", "bank", "list", "--bank-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "CEREB Anatomy - Test 1")
	assert.Contains(t, out, "1 quizzes, 2 questions")
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "", "list", "--store", "postgres")
	assert.Error(t, err)
}
