package models

import "time"

// Vulnerability is one discrete issue surfaced by AI analysis of a single file.
// Created in bulk when a scan completes; the engine never mutates it afterwards
// (status changes like "resolved" belong to the CRUD layer).
type Vulnerability struct {
	ID             int64     `json:"id"             db:"id"`
	ScanID         string    `json:"scan_id"        db:"scan_id"`
	RepositoryID   string    `json:"repository_id"  db:"repository_id"`
	Type           string    `json:"type"           db:"type"` // e.g. "SQL_INJECTION"
	Severity       Severity  `json:"severity"       db:"severity"`
	Title          string    `json:"title"          db:"title"`
	Description    string    `json:"description"    db:"description"`
	Impact         string    `json:"impact"         db:"impact"`
	Recommendation string    `json:"recommendation" db:"recommendation"`
	FilePath       string    `json:"file_path"      db:"file_path"`
	FileName       string    `json:"file_name"      db:"file_name"`
	LineNumber     int       `json:"line_number"    db:"line_number"`
	CodeSnippet    string    `json:"code_snippet"   db:"code_snippet"`
	Confidence     string    `json:"confidence"     db:"confidence"`
	DiscoveredAt   time.Time `json:"discovered_at"  db:"discovered_at"`
}
