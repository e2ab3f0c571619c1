package llm

import "context"

type Provider interface {
	// Generate answers the question in French, grounded strictly on the
	// retrieved building summaries passed as matches.
	Generate(ctx context.Context, question string, matches []string) (string, error)
}
