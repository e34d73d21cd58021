package capture

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/conorfennell/medrecall/internal/domain"
)

func TestCleanExplanation(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text passes through",
			input:    "Ulnar nerve palsy causes claw hand.",
			expected: "Ulnar nerve palsy causes claw hand.",
		},
		{
			name:     "images become a placeholder",
			input:    `<p>See figure <img src="x.png" alt="fig"> below</p>`,
			expected: "See figure [IMAGE] below",
		},
		{
			name:     "answer restatement line removed",
			input:    "<p><strong>Ans. C) Ulnar nerve</strong></p>\n<p>The ulnar nerve supplies the hypothenar muscles.</p>",
			expected: "The ulnar nerve supplies the hypothenar muscles.",
		},
		{
			name:     "lowercase answer letter",
			input:    "<P><STRONG>ans. b) Median</STRONG>\nMedian nerve.",
			expected: "Median nerve.",
		},
		{
			name:     "educational objective block removed across lines",
			input:    "<p>Main point.</p><p><strong>Educational Objective:</strong>\nRemember\nthis.</p><p>Tail.</p>",
			expected: "Main point. Tail.",
		},
		{
			name:     "signature removed",
			input:    "Thiamine deficiency @dams_new_robot causes Wernicke.",
			expected: "Thiamine deficiency causes Wernicke.",
		},
		{
			name:     "tags become spaces and entities decode",
			input:    "<ul><li>Na&#43;</li><li>K &amp; Cl</li></ul>",
			expected: "Na+ K & Cl",
		},
		{
			name:     "scripts dropped with content",
			input:    "Keep<script>alert(1)</script> this",
			expected: "Keep this",
		},
		{
			name:     "comparison signs survive",
			input:    "Platelets <50,000 need transfusion",
			expected: "Platelets <50,000 need transfusion",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanExplanation(tc.input)
			if got != tc.expected {
				t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestCleanExplanationTruncates(t *testing.T) {
	long := strings.Repeat("ab ", 400)
	got := CleanExplanation(long)
	if n := utf8.RuneCountInString(got); n > DefaultMaxExplanation {
		t.Errorf("Expected at most %d runes, but got %d", DefaultMaxExplanation, n)
	}

	c := NewCleaner(10, []string{})
	if got := c.Clean("ééééééééééééééé"); got != "éééééééééé" {
		t.Errorf("Expected rune-safe truncation, got '%s'", got)
	}
}

func TestCleanExplanationIsIdempotent(t *testing.T) {
	inputs := []string{
		"<p><strong>Ans. A) X</strong></p>\n<p>Text <img src=a> more</p>",
		"&lt;b&gt;escaped tag&lt;/b&gt; text",
		"@dams_@dams_new_robotnew_robot nested signature",
		strings.Repeat("word ", 200),
		"Platelets <50,000",
		"x &" + strings.Repeat("amp;", 10) + "lt;b&gt;y",
		"<p>Serum K &lt;b and c&gt; normal</p>",
		"",
	}
	for _, in := range inputs {
		once := CleanExplanation(in)
		twice := CleanExplanation(once)
		if once != twice {
			t.Errorf("Cleaning is not idempotent for %q: '%s' then '%s'", in, once, twice)
		}
	}
}

func TestCleanExplanationDecodesEveryEntityLayer(t *testing.T) {
	nested := "x &" + strings.Repeat("amp;", 10) + "lt;b&gt;y"
	if got := CleanExplanation(nested); got != "x y" {
		t.Errorf("Expected 'x y', but got '%s'", got)
	}
	if got := CleanExplanation("<p>Serum K &lt;b and c&gt; normal</p>"); got != "Serum K normal" {
		t.Errorf("Expected escaped markup to be stripped, but got '%s'", got)
	}
}

func TestExplanationSource(t *testing.T) {
	testCases := []struct {
		name     string
		q        domain.Question
		expected string
	}{
		{"explanation wins", domain.Question{Text: "q", Explanation: "E", CorrectAnswer: "A"}, "E"},
		{"falls back to correct answer", domain.Question{Text: "q", CorrectAnswer: "A"}, "A"},
		{"blank explanation falls back", domain.Question{Text: "q", Explanation: "  ", CorrectAnswer: "A"}, "A"},
		{"literal when both absent", domain.Question{Text: "q"}, NoExplanation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExplanationSource(tc.q); got != tc.expected {
				t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestSourceLabel(t *testing.T) {
	testCases := map[string]string{
		"CEREB Anatomy - Test 3": "CEREB Anatomy",
		"Pharmacology":           "Pharmacology",
		"  - untitled":           "Quiz",
		"":                       "Quiz",
	}
	for in, want := range testCases {
		if got := SourceLabel(in); got != want {
			t.Errorf("SourceLabel(%q) = '%s', want '%s'", in, got, want)
		}
	}
}
