package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every generation call. The model must stay on the
// retrieved context and answer in French.
const SystemPrompt = `Tu es un assistant spécialisé dans le parc immobilier français.
Tu réponds uniquement à partir du contexte fourni, qui décrit des bâtiments réels issus de la base nationale des bâtiments.
Si le contexte ne permet pas de répondre, dis-le clairement au lieu d'inventer.
Réponds en français, de manière concise et factuelle.`

// BuildUserPrompt assembles the grounded prompt: the retrieved summaries
// first, then the question.
func BuildUserPrompt(question string, matches []string) string {
	var b strings.Builder
	b.WriteString("Contexte (descriptions de bâtiments) :\n")
	for i, match := range matches {
		fmt.Fprintf(&b, "--- Bâtiment %d ---\n%s\n", i+1, match)
	}
	fmt.Fprintf(&b, "\nQuestion : %s", question)
	return b.String()
}
