package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{"https://github.com/example/qbank.git", filepath.Join("repos", "github.com", "example", "qbank"), false},
		{"http://git.local/med/bank", filepath.Join("repos", "git.local", "med", "bank"), false},
		{"git@github.com:example/qbank.git", filepath.Join("repos", "github.com", "example", "qbank"), false},
		{"file:///srv/git/qbank.git", filepath.Join("repos", "local", "qbank"), false},
		{"not a url", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q", tc.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalPath() returned an unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestSyncOpensExistingNonRepo(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "quiz.json"), []byte("[]"), 0o644)

	err := Sync(context.Background(), "https://example.invalid/bank.git", dir, nil)
	if err == nil {
		t.Fatal("Expected an error when the directory is not a repository")
	}
}

func TestSyncClonesLocalRepository(t *testing.T) {
	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(src, "quiz.json"), []byte(`[{"text":"Q"}]`), 0o644)
	wt, _ := repo.Worktree()
	wt.Add("quiz.json")
	if _, err := wt.Commit("add quiz", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(1_700_000_000, 0)},
	}); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "bank")
	if err := Sync(context.Background(), src, dst, nil); err != nil {
		t.Fatalf("Sync() clone returned an unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "quiz.json")); err != nil {
		t.Errorf("Expected cloned file: %v", err)
	}

	if err := Sync(context.Background(), src, dst, nil); err != nil {
		t.Errorf("Sync() pull returned an unexpected error: %v", err)
	}
}
