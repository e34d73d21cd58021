package capture

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/conorfennell/medrecall/internal/domain"
)

const (
	// DefaultMaxExplanation bounds the stored explanation, in runes.
	DefaultMaxExplanation = 500
	// NoExplanation is stored when a question carries neither an explanation nor an answer.
	NoExplanation = "No explanation provided."

	imagePlaceholder = "[IMAGE]"
)

// DefaultSignatures are attribution strings the question bank exports append.
var DefaultSignatures = []string{"@dams_new_robot"}

var (
	imgTag        = regexp.MustCompile(`(?i)<img[^>]*>`)
	answerRestate = regexp.MustCompile(`(?i)<p><strong>Ans\. [A-Z]\).*`)
	objectiveBlk  = regexp.MustCompile(`(?is)<p><strong>Educational Objective:</strong>.*?</p>`)
)

// Cleaner turns an HTML explanation into short plain text.
type Cleaner struct {
	maxRunes   int
	signatures []string
	policy     *bluemonday.Policy
}

// NewCleaner returns a Cleaner. maxRunes <= 0 selects DefaultMaxExplanation;
// nil signatures selects DefaultSignatures.
func NewCleaner(maxRunes int, signatures []string) *Cleaner {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxExplanation
	}
	if signatures == nil {
		signatures = DefaultSignatures
	}
	return &Cleaner{
		maxRunes:   maxRunes,
		signatures: signatures,
		policy:     bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true),
	}
}

var defaultCleaner = NewCleaner(0, nil)

// CleanExplanation cleans raw with the default bound and signatures.
func CleanExplanation(raw string) string {
	return defaultCleaner.Clean(raw)
}

// Clean runs the cleaning passes until the text stops changing, so cleaning
// already-cleaned text is a no-op. Each pass decodes one layer of entities,
// so escaped markup is stripped like literal markup.
func (c *Cleaner) Clean(raw string) string {
	out := c.pass(raw)
	for {
		next := c.pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func (c *Cleaner) pass(s string) string {
	s = imgTag.ReplaceAllString(s, imagePlaceholder)
	s = answerRestate.ReplaceAllString(s, "")
	s = objectiveBlk.ReplaceAllString(s, "")
	for _, sig := range c.signatures {
		if sig != "" {
			s = strings.ReplaceAll(s, sig, "")
		}
	}
	s = c.PlainText(s)
	if r := []rune(s); len(r) > c.maxRunes {
		s = string(r[:c.maxRunes])
	}
	return strings.TrimSpace(s)
}

// PlainText strips markup and entities and collapses whitespace.
func (c *Cleaner) PlainText(s string) string {
	s = html.UnescapeString(c.policy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// ExplanationSource picks the text a card's explanation is built from.
func ExplanationSource(q domain.Question) string {
	switch {
	case strings.TrimSpace(q.Explanation) != "":
		return q.Explanation
	case strings.TrimSpace(q.CorrectAnswer) != "":
		return q.CorrectAnswer
	default:
		return NoExplanation
	}
}

// SourceLabel shortens a quiz page title to its leading segment,
// "CEREB Anatomy - Test 3" becoming "CEREB Anatomy".
func SourceLabel(title string) string {
	label, _, _ := strings.Cut(title, "-")
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return "Quiz"
}
