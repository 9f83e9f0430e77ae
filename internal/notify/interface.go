package notify

import "context"

// Event represents a notification event from the scan engine.
type Event struct {
	Type      string // "critical_finding" | "scan_failed"
	Title     string
	Body      string
	URL       string // optional deep link to the repository or finding
	Severity  string // "critical" | "high" | "medium" | "low" | ""
	RepoKey   string // "owner/repo"
	Recipient string // email recipient for channels that address per-event
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
