package domain

import (
	"path"
	"regexp"
	"strings"
)

// DefaultFramework is used when a request does not name a test framework.
const DefaultFramework = "Jest"

// Framework describes the file and directory conventions of a test framework.
type Framework struct {
	Name         string
	Extension    string // appended to the source basename, without leading dot
	E2EExtension string // used instead of Extension for e2e summaries, if set
	TestDir      string
	Command      string
}

var frameworks = []Framework{
	{Name: "Jest (React)", Extension: "test.js", E2EExtension: "e2e.test.js", TestDir: "__tests__", Command: "npm test"},
	{Name: "Jest", Extension: "test.js", E2EExtension: "e2e.test.js", TestDir: "__tests__", Command: "npm test"},
	{Name: "Cypress", Extension: "cy.js", TestDir: "cypress/e2e", Command: "npx cypress run"},
	{Name: "Selenium", Extension: "selenium.test.js", TestDir: "tests/selenium", Command: "npm run test:selenium"},
	{Name: "Playwright", Extension: "spec.js", TestDir: "tests/playwright", Command: "npx playwright test"},
	{Name: "Pytest", Extension: "test.py", TestDir: "tests", Command: "pytest"},
	{Name: "JUnit", Extension: "Test.java", TestDir: "src/test/java", Command: "mvn test"},
	{Name: "Mocha", Extension: "test.js", TestDir: "test", Command: "npm run test"},
}

var fallbackFramework = Framework{Extension: "test.js", TestDir: "tests", Command: "npm test"}

// LookupFramework resolves a framework label. Exact names win; otherwise the
// first framework whose name appears in the label (case-insensitive) is used,
// so "jest" and "Pytest 7" resolve too. Unknown labels get generic conventions.
func LookupFramework(label string) Framework {
	for _, fw := range frameworks {
		if fw.Name == label {
			return fw
		}
	}
	lower := strings.ToLower(label)
	for _, fw := range frameworks {
		if strings.Contains(lower, strings.ToLower(fw.Name)) {
			return fw
		}
	}
	fw := fallbackFramework
	fw.Name = label
	return fw
}

// TestFileName derives the generated file name from the first referenced
// source file, e.g. "app/calc.py" with Pytest gives "calc.test.py".
func (fw Framework) TestFileName(files []string, category string) string {
	first := "component"
	if len(files) > 0 && files[0] != "" {
		first = files[0]
	}
	base := path.Base(first)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "/" {
		base = "test"
	}

	ext := fw.Extension
	if category == CategoryE2E && fw.E2EExtension != "" {
		ext = fw.E2EExtension
	}
	return base + "." + ext
}

// TestFilePath is the repo-relative path a generated file is committed to.
func (fw Framework) TestFilePath(filename string) string {
	return path.Join(fw.TestDir, filename)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug returns a branch-safe form of the framework name.
func (fw Framework) Slug() string {
	s := slugPattern.ReplaceAllString(strings.ToLower(fw.Name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "tests"
	}
	return s
}
