package port

import (
	"context"

	"github.com/arturoeanton/testgen-ai/internal/domain"
)

// AIProvider abstracts the LLM backend used for test generation.
// Implementations can target Ollama, Gemini, or any compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Chat sends a prompt with optional context chunks and returns the LLM response.
	Chat(ctx context.Context, systemPrompt string, userPrompt string, contextChunks []string) (string, error)

	// ChatJSON is like Chat but asks the backend to constrain its output to JSON.
	ChatJSON(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// SummaryRequest asks for test-case proposals over a set of source files.
type SummaryRequest struct {
	Files     []domain.SourceFile
	Framework string
}

// CodeRequest asks for runnable test code for one summary.
type CodeRequest struct {
	Summary  domain.TestCaseSummary
	Files    []domain.SourceFile
	Template string // optional reference skeleton
}

// CustomRequest asks for a test written from a free-form instruction.
type CustomRequest struct {
	Prompt    string
	Framework string
	Files     []domain.SourceFile
}

// TestCaseGenerator is the content generation client. It turns source files
// into summaries, summaries into code, and summaries into documentation.
type TestCaseGenerator interface {
	GenerateSummaries(ctx context.Context, req SummaryRequest) ([]domain.SummaryDraft, error)
	GenerateCode(ctx context.Context, req CodeRequest) (*domain.GeneratedTest, error)
	GenerateCustomTest(ctx context.Context, req CustomRequest) (*domain.GeneratedTest, error)
	GenerateDocumentation(ctx context.Context, summaries []domain.TestCaseSummary, framework string) (string, error)
}
