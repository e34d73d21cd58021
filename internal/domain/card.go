package domain

import "time"

// Card is one flashcard captured from a missed quiz question.
type Card struct {
	ID          string
	Text        string
	Answer      string
	Explanation string
	Source      string
	NextReview  int64 // ms since epoch, 0: due now / never reviewed
	Reviews     int
}

// IsDue reports whether the card should be shown at now.
func (c Card) IsDue(now time.Time) bool {
	return c.NextReview <= now.UnixMilli()
}

// Option is one multiple-choice option of a quiz question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a quiz question as handed over by the quiz UI when it is
// answered incorrectly. Only Text is required.
type Question struct {
	UID           string   `json:"uid,omitempty"`
	Text          string   `json:"text" validate:"required"`
	Explanation   string   `json:"explanation,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Options       []Option `json:"options,omitempty"`
}
