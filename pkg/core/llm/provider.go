// Package llm wraps the text-completion services the suite calls for
// categorization and extraction. Providers are external collaborators:
// everything here is a thin client, no business logic.
package llm

import "context"

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}
