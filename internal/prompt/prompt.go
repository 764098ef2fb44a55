// Package prompt generates speaking prompts for practice sessions.
package prompt

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Generator produces a speaking prompt for an exercise type and interest.
type Generator interface {
	Generate(ctx context.Context, exerciseType, interest string) (string, error)
}

// GenericFailure is the user-facing message for any generation failure. Raw
// errors from the service never reach the screen.
const GenericFailure = "Failed to generate a prompt. Please check your connection and try again."

// StaticGenerator serves templated prompts without any network dependency.
type StaticGenerator struct{}

// NewStaticGenerator returns the offline prompt source.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

var staticTemplates = map[string][]string{
	"interview": {
		"Tell me about a time %s played a role in a decision you made.",
		"Describe a challenge related to %s and how you handled it.",
		"Why does %s matter to you, and how would you explain it to a colleague?",
	},
	"storytelling": {
		"Tell a story about your most memorable experience with %s.",
		"Describe a moment when %s surprised you.",
		"Walk me through a day built entirely around %s.",
	},
	"presentation": {
		"Give a one-minute pitch introducing %s to a newcomer.",
		"Present three reasons why %s deserves more attention.",
		"Explain a common misconception about %s.",
	},
	"debate": {
		"Argue for or against spending more time on %s.",
		"Defend the claim that %s changes how people connect.",
	},
}

var staticFallback = []string{
	"Speak for one minute about what %s means to you.",
	"Describe how you first got into %s.",
}

// Generate is deterministic for a given input pair so repeated setups see a
// stable prompt.
func (g *StaticGenerator) Generate(_ context.Context, exerciseType, interest string) (string, error) {
	if strings.TrimSpace(interest) == "" {
		return "", fmt.Errorf("interest must not be empty")
	}
	templates, ok := staticTemplates[strings.ToLower(strings.TrimSpace(exerciseType))]
	if !ok {
		templates = staticFallback
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(exerciseType))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(interest))
	idx := int(h.Sum32()) % len(templates)
	if idx < 0 {
		idx += len(templates)
	}
	return fmt.Sprintf(templates[idx], strings.ToLower(strings.TrimSpace(interest))), nil
}
