package domain

import "time"

// Summary priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Summary categories.
const (
	CategoryUnit        = "unit"
	CategoryIntegration = "integration"
	CategoryE2E         = "e2e"
	CategoryPerformance = "performance"
)

// TestCaseSummary is a proposed group of tests. GeneratedCode is empty until
// code generation succeeds for it.
type TestCaseSummary struct {
	ID             string    `json:"id"             db:"id"`
	RepositoryID   string    `json:"repositoryId"   db:"repository_id"`
	Title          string    `json:"title"          db:"title"`
	Description    string    `json:"description"    db:"description"`
	Priority       string    `json:"priority"       db:"priority"`
	TestFramework  string    `json:"testFramework"  db:"test_framework"`
	Files          []string  `json:"files"          db:"files"`
	TestCaseCount  string    `json:"testCaseCount"  db:"test_case_count"`
	EstimatedTime  string    `json:"estimatedTime"  db:"estimated_time"`
	GeneratedCode  string    `json:"generatedCode,omitempty" db:"generated_code"`
	Category       string    `json:"category"       db:"category"`
	IsCustomizable bool      `json:"isCustomizable" db:"is_customizable"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}

// HasCode reports whether code has been generated for the summary.
func (s *TestCaseSummary) HasCode() bool {
	return s.GeneratedCode != ""
}

// SummaryDraft is a summary as returned by the content generation client,
// before it is scoped to a repository and persisted.
type SummaryDraft struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	TestCaseCount string   `json:"testCaseCount"`
	EstimatedTime string   `json:"estimatedTime"`
	Files         []string `json:"files"`
	Category      string   `json:"category"`
}

// TestCasePatch is a partial update of a summary. A non-nil Files replaces
// the list, including with an empty one.
type TestCasePatch struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Priority       *string   `json:"priority,omitempty"`
	TestFramework  *string   `json:"testFramework,omitempty"`
	Files          *[]string `json:"files,omitempty"          copier:"-"`
	TestCaseCount  *string   `json:"testCaseCount,omitempty"`
	EstimatedTime  *string   `json:"estimatedTime,omitempty"`
	GeneratedCode  *string   `json:"generatedCode,omitempty"`
	Category       *string   `json:"category,omitempty"`
	IsCustomizable *bool     `json:"isCustomizable,omitempty"`
}

// GeneratedTest is the artifact produced by code generation.
type GeneratedTest struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Framework string `json:"framework"`
	Language  string `json:"language"`
	Category  string `json:"category,omitempty"`
}

// NormalizePriority maps free-form model output onto the priority enum.
func NormalizePriority(p string) string {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	case "High", "HIGH", "critical", "Critical":
		return PriorityHigh
	case "Low", "LOW":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// NormalizeCategory maps model output onto the category enum, defaulting to unit.
func NormalizeCategory(c string) string {
	switch c {
	case CategoryUnit, CategoryIntegration, CategoryE2E, CategoryPerformance:
		return c
	case "end-to-end", "E2E":
		return CategoryE2E
	case "Integration":
		return CategoryIntegration
	case "Performance":
		return CategoryPerformance
	default:
		return CategoryUnit
	}
}
