package ai

import (
	"context"
	"errors"
)

// DraftGenerator — external intelligence; knows nothing about contacts,
// stages or the DB.
type DraftGenerator interface {
	Draft(ctx context.Context, history []Message, nextAction string) (string, error)
}

// Message — dialogue format for the AI side.
type Message struct {
	Role string // "user" | "assistant" | "system"
	Text string
}

var ErrDisabled = errors.New("ai: draft generation disabled")

type disabled struct{}

// Disabled is the fallback generator when no API key is configured. Drafting
// fails; everything else keeps working.
func Disabled() DraftGenerator { return disabled{} }

func (disabled) Draft(context.Context, []Message, string) (string, error) {
	return "", ErrDisabled
}
