package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// Both providers (Gemini and any OpenAI-compatible endpoint) implement it.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
