package ports

import "context"

// LLMClient sends a single prompt to an analysis provider
type LLMClient interface {
	// Complete returns the provider's text for prompt. A reply without text
	// is not an error; transport and decoding failures are.
	Complete(ctx context.Context, prompt string) (string, error)

	Provider() string
	Model() string
}
