// Package feedback requests AI comments on a diary body and anchors them to
// character ranges.
package feedback

import "context"

// Request is the body sent to a feedback service.
type Request struct {
	Content []string `json:"content"`
}

// Item is one feedback entry addressed by word indices, not characters.
type Item struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Collaborator turns word-tokenized text into word-indexed feedback.
type Collaborator interface {
	Feedback(ctx context.Context, words []string) ([]Item, error)
}

// Disabled is a Collaborator that never has feedback.
type Disabled struct{}

func (Disabled) Feedback(context.Context, []string) ([]Item, error) {
	return nil, nil
}
