package ai

import (
	"fmt"
	"strings"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// maxFileBytes bounds how much of each source file is sent to the model.
const maxFileBytes = 60_000

const summarySystemPrompt = `You are a senior test engineer. You read source code and propose test suites.

OUTPUT FORMAT:
Return ONLY a JSON array. Each element is an object with these fields:
  "title"          short descriptive title
  "description"    what the suite verifies
  "priority"       one of "high", "medium", "low"
  "testCaseCount"  number of individual test cases, as a string
  "estimatedTime"  estimated run time, e.g. "2 minutes"
  "files"          array of the source file paths the suite covers (use the paths exactly as given)
  "category"       one of "unit", "integration", "e2e", "performance"
No markdown fences, no commentary.`

const codeSystemPrompt = `You are a senior test engineer writing complete, runnable test files.
Include all imports and any setup or teardown the tests need.
Return ONLY the content of the test file. No markdown fences, no commentary.`

const docsSystemPrompt = `You are a technical writer documenting a project's test suites.
Return well-structured Markdown.`

func writeFiles(b *strings.Builder, files []domain.SourceFile) {
	for _, f := range files {
		fmt.Fprintf(b, "File: %s (%s)\n```%s\n%s\n```\n\n", f.Path, f.Language, f.Language, truncateToBytes(f.Content, maxFileBytes))
	}
}

func buildSummaryPrompt(req port.SummaryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following source files and propose 3-5 test suites for the %s framework.\n\n", req.Framework)
	writeFiles(&b, req.Files)
	b.WriteString("Cover core behavior, user interactions, state and data flow, error handling and edge cases, and integration points where they apply.\n")
	return b.String()
}

func buildCodePrompt(req port.CodeRequest) string {
	s := req.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s tests for this test suite.\n\n", s.TestFramework)
	fmt.Fprintf(&b, "Title: %s\nDescription: %s\nPriority: %s\nCategory: %s\n\n", s.Title, s.Description, s.Priority, s.Category)
	b.WriteString("Source files:\n")
	writeFiles(&b, req.Files)
	if req.Template != "" {
		fmt.Fprintf(&b, "Follow the structure of this reference template:\n```\n%s\n```\n\n", req.Template)
	}
	fmt.Fprintf(&b, "Follow %s conventions, use meaningful test names, and handle async code where needed.\n", s.TestFramework)
	return b.String()
}

func buildCustomPrompt(req port.CustomRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s tests according to these instructions:\n%s\n\n", req.Framework, req.Prompt)
	if len(req.Files) > 0 {
		b.WriteString("Source files:\n")
		writeFiles(&b, req.Files)
	}
	return b.String()
}

func buildDocumentationPrompt(summaries []domain.TestCaseSummary, framework string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write documentation for the following %s test suites. Include an overview, how to run the tests, and one section per suite.\n\n", framework)
	for i, s := range summaries {
		fmt.Fprintf(&b, "%d. %s [%s, %s priority]\n   %s\n   Files: %s\n", i+1, s.Title, s.Category, s.Priority, s.Description, strings.Join(s.Files, ", "))
		if s.HasCode() {
			fmt.Fprintf(&b, "   Code:\n```\n%s\n```\n", truncateToBytes(s.GeneratedCode, maxFileBytes/4))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Tests are run with: %s\n", domain.LookupFramework(framework).Command)
	return b.String()
}

func truncateToBytes(content string, maxBytes int) string {
	if len(content) <= maxBytes {
		return content
	}

	truncated := content[:maxBytes]
	if lastNewline := strings.LastIndex(truncated, "\n"); lastNewline > 0 {
		truncated = truncated[:lastNewline]
	}

	return truncated + "\n\n... (truncated)\n"
}
