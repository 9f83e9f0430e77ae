package models

import "time"

// Repository represents a connected source-code repository.
// Lifecycle (connect/disconnect) is owned by the CRUD layer; the scan engine
// reads it and writes back the cached security score and last-scan time.
type Repository struct {
	ID            string     `json:"id"             db:"id"`
	UserID        string     `json:"user_id"        db:"user_id"`
	Provider      string     `json:"provider"       db:"provider"` // github | gitlab
	Name          string     `json:"name"           db:"name"`
	FullName      string     `json:"full_name"      db:"full_name"` // owner/name
	HTMLURL       string     `json:"html_url"       db:"html_url"`
	Branch        string     `json:"branch"         db:"branch"`
	Language      string     `json:"language"       db:"language"`
	Private       bool       `json:"private"        db:"private"`
	SecurityScore *int       `json:"security_score" db:"security_score"`
	LastScanAt    *time.Time `json:"last_scan_at"   db:"last_scan_at"`
	CreatedAt     time.Time  `json:"created_at"     db:"created_at"`
}

// Owner returns the owner half of FullName ("owner/name").
func (r *Repository) Owner() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[:i]
		}
	}
	return r.FullName
}

// RepoName returns the name half of FullName ("owner/name").
func (r *Repository) RepoName() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[i+1:]
		}
	}
	return r.Name
}
