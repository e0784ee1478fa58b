package domain

import (
	"strings"
	"time"
)

// Repository represents a GitHub repository imported into the dashboard.
// ID is assigned externally (the GitHub full name) and stays stable for the
// lifetime of the record.
type Repository struct {
	ID            string    `json:"id"             db:"id"`
	Name          string    `json:"name"           db:"name"`
	FullName      string    `json:"fullName"       db:"full_name"`
	Owner         string    `json:"owner"          db:"owner"`
	Description   string    `json:"description"    db:"description"`
	Language      string    `json:"language"       db:"language"`
	IsPrivate     bool      `json:"isPrivate"      db:"is_private"`
	AccessToken   string    `json:"-"              db:"access_token"` // never serialized to JSON
	DefaultBranch string    `json:"defaultBranch"  db:"default_branch"`
	CreatedAt     time.Time `json:"createdAt"      db:"created_at"`
}

// DefaultBaseBranch is used when GitHub did not report a default branch.
const DefaultBaseBranch = "main"

// HasAccessToken reports whether the repository carries a credential.
func (r *Repository) HasAccessToken() bool {
	return r.AccessToken != ""
}

// BaseBranch returns the branch pull requests target.
func (r *Repository) BaseBranch() string {
	if r.DefaultBranch == "" {
		return DefaultBaseBranch
	}
	return r.DefaultBranch
}

// SplitFullName splits "owner/name" into its two segments. ok is false unless
// there are exactly two non-empty segments.
func (r *Repository) SplitFullName() (owner, name string, ok bool) {
	parts := strings.Split(r.FullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// RepositoryPatch is a partial update. Nil fields are left unchanged.
type RepositoryPatch struct {
	Name          *string `json:"name,omitempty"`
	FullName      *string `json:"fullName,omitempty"`
	Owner         *string `json:"owner,omitempty"`
	Description   *string `json:"description,omitempty"`
	Language      *string `json:"language,omitempty"`
	IsPrivate     *bool   `json:"isPrivate,omitempty"`
	AccessToken   *string `json:"accessToken,omitempty"`
	DefaultBranch *string `json:"defaultBranch,omitempty"`
}
