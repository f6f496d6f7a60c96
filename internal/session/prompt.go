package session

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-promptfmt"

	"github.com/doclama/doclama/internal/vectorstore"
)

const systemPrompt = "You are a documentation assistant. Answer the question " +
	"using only the provided context. If the context does not contain the " +
	"answer, say that the documentation does not cover it. Keep answers concise."

// buildQueryPrompt assembles the grounded QA prompt from the retrieved
// chunks and the user question.
func buildQueryPrompt(question string, chunks []vectorstore.SearchResult) *promptfmt.Prompt {
	pb := promptfmt.New().
		System(systemPrompt).
		User("%s", question)

	if len(chunks) > 0 {
		pb.AddContext("documentation", formatChunks(chunks))
	}

	return pb.Build()
}

func formatChunks(chunks []vectorstore.SearchResult) string {
	var sb strings.Builder

	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		header := fmt.Sprintf("[%d]", i+1)
		if chunk.Source != "" {
			header += " " + chunk.Source
		}
		if chunk.Section != "" {
			header += " > " + chunk.Section
		}

		sb.WriteString(header)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(chunk.Text))
	}

	return sb.String()
}
