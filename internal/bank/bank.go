// Package bank manages the local question bank: a directory of quiz files,
// optionally mirrored from a git repository.
package bank

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/conorfennell/medrecall/internal/gitsource"
	"github.com/conorfennell/medrecall/internal/quiz"
)

// Config locates the bank.
type Config struct {
	Dir string
	URL string
}

// Entry describes one quiz found in the bank.
type Entry struct {
	Title     string `json:"title"`
	File      string `json:"file"`
	Questions int    `json:"questions"`
}

// Manifest lists the quizzes of a bank sorted by file, then title.
type Manifest []Entry

// Root is the directory scanned for quizzes. A git bank is checked out under
// Dir at a path derived from its URL.
func Root(cfg Config) (string, error) {
	if cfg.URL == "" {
		return cfg.Dir, nil
	}
	return gitsource.LocalPath(cfg.Dir, cfg.URL)
}

// Sync refreshes a git bank, when one is configured, and scans it.
func Sync(ctx context.Context, cfg Config, progress io.Writer) (Manifest, []error, error) {
	root, err := Root(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.URL != "" {
		if err := gitsource.Sync(ctx, cfg.URL, root, progress); err != nil {
			return nil, nil, err
		}
	}
	manifest, errs := Scan(root)
	return manifest, errs, nil
}

// Scan walks dir and lists every quiz in it. Files that fail to parse are
// reported and skipped; the walk continues.
func Scan(dir string) (Manifest, []error) {
	var manifest Manifest
	var errs []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !quiz.Supported(path) {
			return nil
		}

		quizzes, loadErr := quiz.LoadFile(path)
		if loadErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, loadErr))
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		for _, q := range quizzes {
			manifest = append(manifest, Entry{Title: q.Title, File: rel, Questions: len(q.Questions)})
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walking %s: %w", dir, walkErr))
	}

	sort.SliceStable(manifest, func(i, j int) bool {
		if manifest[i].File != manifest[j].File {
			return manifest[i].File < manifest[j].File
		}
		return manifest[i].Title < manifest[j].Title
	})

	slog.Info("Bank scan complete", "path", dir, "quizzes", len(manifest), "errors", len(errs))
	return manifest, errs
}
