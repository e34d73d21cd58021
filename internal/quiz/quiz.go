// Package quiz loads question-bank quizzes from serialized JSON files and
// from exported quiz pages.
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/conorfennell/medrecall/internal/domain"
)

// Quiz is one test: a title and its questions.
type Quiz struct {
	ID        string
	Title     string
	Source    string
	Questions []domain.Question
}

// ErrUnsupported is returned for file types the loader does not read.
var ErrUnsupported = errors.New("unsupported quiz file")

var (
	questionsAssign = regexp.MustCompile(`(?s)questions\s*=\s*(\[\{.*\}\]);`)
	showTestCall    = regexp.MustCompile(`showTest\('([^']+)'\)`)
)

// serialized is the layout written by the quiz serializer.
type serialized struct {
	Meta struct {
		ID             string `json:"id"`
		Title          string `json:"title"`
		TotalQuestions int    `json:"total_questions"`
		Source         string `json:"source"`
	} `json:"meta"`
	Questions []domain.Question `json:"questions"`
}

// Supported reports whether LoadFile can read path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".html", ".htm":
		return true
	}
	return false
}

// LoadFile reads every quiz stored in path.
func LoadFile(path string) ([]Quiz, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(file, name)
	}
	return ParseHTML(file, name)
}

// ParseJSON reads either the serialized {"meta", "questions"} layout or a bare
// question array. name titles quizzes that carry no title of their own.
func ParseJSON(r io.Reader, name string) ([]Quiz, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var qs []domain.Question
		if err := json.Unmarshal(data, &qs); err != nil {
			return nil, fmt.Errorf("failed to parse question array: %w", err)
		}
		return []Quiz{{Title: name, Questions: qs}}, nil
	}

	var doc serialized
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse quiz file: %w", err)
	}
	title := doc.Meta.Title
	if title == "" {
		title = name
	}
	return []Quiz{{
		ID:        doc.Meta.ID,
		Title:     title,
		Source:    doc.Meta.Source,
		Questions: doc.Questions,
	}}, nil
}

// ParseHTML extracts quizzes embedded in an exported page. A hub page holds
// one iframe per test under .iframe-container; a standalone quiz page holds
// the question array in its own scripts.
func ParseHTML(r io.Reader, name string) ([]Quiz, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	titles := make(map[string]string)
	doc.Find(".nav-buttons button").Each(func(_ int, btn *goquery.Selection) {
		onclick, _ := btn.Attr("onclick")
		if m := showTestCall.FindStringSubmatch(onclick); m != nil {
			titles[m[1]] = strings.TrimSpace(btn.Text())
		}
	})

	var quizzes []Quiz
	var errs []error
	doc.Find(".iframe-container").Each(func(_ int, container *goquery.Selection) {
		id, _ := container.Attr("id")
		title := titles[id]
		if title == "" {
			if h2 := strings.TrimSpace(container.Find("h2").First().Text()); h2 != "" {
				title = h2
			} else {
				title = "Test " + id
			}
		}

		srcdoc, ok := container.Find("iframe").First().Attr("srcdoc")
		if !ok {
			return
		}
		qs, err := extractQuestions(srcdoc)
		if err != nil {
			errs = append(errs, fmt.Errorf("test %q: %w", title, err))
			return
		}
		if qs != nil {
			quizzes = append(quizzes, Quiz{ID: id, Title: title, Questions: qs})
		}
	})

	if len(quizzes) == 0 && len(errs) == 0 {
		qs, err := extractQuestions(doc.Find("script").Text())
		if err != nil {
			return nil, err
		}
		if qs != nil {
			title := strings.TrimSpace(doc.Find("title").First().Text())
			if title == "" {
				title = name
			}
			quizzes = append(quizzes, Quiz{Title: title, Questions: qs})
		}
	}

	return quizzes, errors.Join(errs...)
}

// extractQuestions returns nil, nil when src holds no question array.
func extractQuestions(src string) ([]domain.Question, error) {
	m := questionsAssign.FindStringSubmatch(src)
	if m == nil {
		return nil, nil
	}
	var qs []domain.Question
	if err := json.Unmarshal([]byte(m[1]), &qs); err != nil {
		return nil, fmt.Errorf("failed to parse embedded questions: %w", err)
	}
	return qs, nil
}
