package models

import "time"

// Activity types recorded by the scan engine.
const (
	ActivityScanStarted   = "SCAN_STARTED"
	ActivityScanCompleted = "SCAN_COMPLETED"
	ActivityScanFailed    = "SCAN_FAILED"
)

// Activity is an audit-trail entry shown on the repository timeline.
type Activity struct {
	ID           int64     `json:"id"            db:"id"`
	Type         string    `json:"type"          db:"type"`
	Description  string    `json:"description"   db:"description"`
	UserID       string    `json:"user_id"       db:"user_id"`
	RepositoryID string    `json:"repository_id" db:"repository_id"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}
