package domain

import "time"

// TestTemplate is a reference skeleton used to steer code generation.
type TestTemplate struct {
	ID          string    `json:"id"          db:"id"`
	Framework   string    `json:"framework"   db:"framework"`
	Category    string    `json:"category"    db:"category"`
	Template    string    `json:"template"    db:"template"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// PullRequestResult is returned after a pull request has been opened.
type PullRequestResult struct {
	URL       string   `json:"url"`
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Branch    string   `json:"branch"`
	Files     []string `json:"files"`
	TestCases int      `json:"testCases"`
}
