package models

import "time"

// ScanStatus is the lifecycle state of a scan. COMPLETED and FAILED are
// terminal: a scan reaches exactly one of them, exactly once.
type ScanStatus string

const (
	ScanQueued     ScanStatus = "QUEUED"
	ScanInProgress ScanStatus = "IN_PROGRESS"
	ScanCompleted  ScanStatus = "COMPLETED"
	ScanFailed     ScanStatus = "FAILED"
)

// TriggerSource records what started a scan.
type TriggerSource string

const (
	TriggerManual    TriggerSource = "MANUAL"
	TriggerWebhook   TriggerSource = "WEBHOOK"
	TriggerScheduled TriggerSource = "SCHEDULED"
)

// Scan is one execution of the scan pipeline against a repository snapshot.
// Mutated only by the orchestrator while IN_PROGRESS; immutable once terminal.
type Scan struct {
	ID                   string        `json:"id"                    db:"id"`
	RepositoryID         string        `json:"repository_id"         db:"repository_id"`
	UserID               string        `json:"user_id"               db:"user_id"`
	Status               ScanStatus    `json:"status"                db:"status"`
	TriggeredBy          TriggerSource `json:"triggered_by"          db:"triggered_by"`
	TotalFiles           int           `json:"total_files"           db:"total_files"`
	ScannedFiles         int           `json:"scanned_files"         db:"scanned_files"`
	VulnerabilitiesFound int           `json:"vulnerabilities_found" db:"vulnerabilities_found"`
	SecurityScore        *int          `json:"security_score"        db:"security_score"`
	Summary              string        `json:"summary,omitempty"     db:"summary"` // JSON-encoded ScanSummary
	ErrorMessage         string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt            time.Time     `json:"created_at"            db:"created_at"`
	StartedAt            *time.Time    `json:"started_at"            db:"started_at"`
	CompletedAt          *time.Time    `json:"completed_at"          db:"completed_at"`
}

// ScanSummary is the aggregated result attached to a completed scan.
type ScanSummary struct {
	Total                 int             `json:"total"`
	SeverityDistribution  map[string]int  `json:"severityDistribution"`
	TopVulnerabilityTypes []TypeCount     `json:"topVulnerabilityTypes"`
}

// TypeCount pairs a vulnerability type with its occurrence count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ScanProgress is the ephemeral progress payload pushed to subscribers while a
// scan is IN_PROGRESS. It is never persisted.
type ScanProgress struct {
	ScanID       string `json:"scanId"`
	Progress     int    `json:"progress"` // 0-100
	CurrentFile  string `json:"currentFile"`
	ScannedFiles int    `json:"scannedFiles"`
	TotalFiles   int    `json:"totalFiles"`
}
