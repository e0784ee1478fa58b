package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

const customTestBaseName = "custom-test"

var (
	fencePattern            = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\n?(.*?)\\n?```")
	commaBeforeCloseBracket = regexp.MustCompile(`,(\s*[\]}])`)
)

// TestWriter implements port.TestCaseGenerator on top of one or two chat models.
// Summaries and documentation go to the summary model, test code to the code model.
type TestWriter struct {
	summaries port.AIProvider
	code      port.AIProvider
}

// NewTestWriter creates a generator. code may be nil to reuse the summary model.
func NewTestWriter(summaries, code port.AIProvider) *TestWriter {
	if code == nil {
		code = summaries
	}
	return &TestWriter{summaries: summaries, code: code}
}

// GenerateSummaries asks the model for test-suite proposals and validates them.
func (w *TestWriter) GenerateSummaries(ctx context.Context, req port.SummaryRequest) ([]domain.SummaryDraft, error) {
	raw, err := w.summaries.ChatJSON(ctx, summarySystemPrompt, buildSummaryPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate summaries: %w", err)
	}
	drafts, err := parseSummaries(raw)
	if err != nil {
		return nil, &port.RemoteError{Service: w.summaries.ModelName(), Message: "unparseable summaries: " + err.Error()}
	}
	return drafts, nil
}

// GenerateCode writes the test file for one summary.
func (w *TestWriter) GenerateCode(ctx context.Context, req port.CodeRequest) (*domain.GeneratedTest, error) {
	raw, err := w.code.Chat(ctx, codeSystemPrompt, buildCodePrompt(req), nil)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	content := stripCodeFences(raw)
	if content == "" {
		return nil, &port.RemoteError{Service: w.code.ModelName(), Message: "empty test code"}
	}

	fw := domain.LookupFramework(req.Summary.TestFramework)
	return &domain.GeneratedTest{
		Filename:  fw.TestFileName(req.Summary.Files, req.Summary.Category),
		Content:   content,
		Framework: req.Summary.TestFramework,
		Language:  firstLanguage(req.Files),
		Category:  req.Summary.Category,
	}, nil
}

// GenerateCustomTest writes a test from a free-form instruction.
func (w *TestWriter) GenerateCustomTest(ctx context.Context, req port.CustomRequest) (*domain.GeneratedTest, error) {
	raw, err := w.code.Chat(ctx, codeSystemPrompt, buildCustomPrompt(req), nil)
	if err != nil {
		return nil, fmt.Errorf("generate custom test: %w", err)
	}
	content := stripCodeFences(raw)
	if content == "" {
		return nil, &port.RemoteError{Service: w.code.ModelName(), Message: "empty test code"}
	}

	fw := domain.LookupFramework(req.Framework)
	return &domain.GeneratedTest{
		Filename:  fw.TestFileName([]string{customTestBaseName}, ""),
		Content:   content,
		Framework: req.Framework,
		Language:  firstLanguage(req.Files),
	}, nil
}

// GenerateDocumentation renders Markdown documentation for a set of summaries.
func (w *TestWriter) GenerateDocumentation(ctx context.Context, summaries []domain.TestCaseSummary, framework string) (string, error) {
	raw, err := w.summaries.Chat(ctx, docsSystemPrompt, buildDocumentationPrompt(summaries, framework), nil)
	if err != nil {
		return "", fmt.Errorf("generate documentation: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

func firstLanguage(files []domain.SourceFile) string {
	for _, f := range files {
		if f.Language != "" && f.Language != domain.LanguageText {
			return f.Language
		}
	}
	return "javascript"
}

// summaryJSON accepts testCaseCount and estimatedTime as strings or numbers.
type summaryJSON struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Priority      string          `json:"priority"`
	TestCaseCount json.RawMessage `json:"testCaseCount"`
	EstimatedTime json.RawMessage `json:"estimatedTime"`
	Files         []string        `json:"files"`
	Category      string          `json:"category"`
}

func parseSummaries(raw string) ([]domain.SummaryDraft, error) {
	cleaned := stripTrailingCommas(strings.TrimSpace(stripMarkdownFences(raw)))

	items, err := summaryArray(cleaned)
	if err != nil {
		return nil, err
	}

	drafts := make([]domain.SummaryDraft, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		drafts = append(drafts, domain.SummaryDraft{
			Title:         strings.TrimSpace(it.Title),
			Description:   strings.TrimSpace(it.Description),
			Priority:      domain.NormalizePriority(strings.ToLower(strings.TrimSpace(it.Priority))),
			TestCaseCount: rawText(it.TestCaseCount),
			EstimatedTime: rawText(it.EstimatedTime),
			Files:         it.Files,
			Category:      domain.NormalizeCategory(strings.ToLower(strings.TrimSpace(it.Category))),
		})
	}
	if len(drafts) == 0 {
		return nil, errors.New("no summaries in response")
	}
	return drafts, nil
}

// summaryArray decodes a bare array, an object wrapping an array, or a single object.
func summaryArray(text string) ([]summaryJSON, error) {
	if strings.HasPrefix(text, "{") {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		for _, v := range wrapper {
			if trimmed := bytes.TrimSpace(v); len(trimmed) > 0 && trimmed[0] == '[' {
				var items []summaryJSON
				if err := json.Unmarshal(trimmed, &items); err == nil {
					return items, nil
				}
			}
		}
		var single summaryJSON
		if err := json.Unmarshal([]byte(text), &single); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return []summaryJSON{single}, nil
	}

	jsonStr, err := extractJSONSubstring(text)
	if err != nil {
		jsonStr = text
	}
	var items []summaryJSON
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return items, nil
}

func rawText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

func stripMarkdownFences(text string) string {
	matches := fencePattern.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}
	return text
}

// stripCodeFences unwraps a fenced block if the model added one anyway.
func stripCodeFences(text string) string {
	return strings.TrimSpace(stripMarkdownFences(strings.TrimSpace(text)))
}

func extractJSONSubstring(text string) (string, error) {
	start := strings.Index(text, "[")
	if start == -1 {
		return "", errors.New("no JSON array found")
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		switch c := text[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", errors.New("unclosed JSON array")
}

func stripTrailingCommas(text string) string {
	return commaBeforeCloseBracket.ReplaceAllString(text, "$1")
}
