package models

import "strings"

// Severity represents the severity of a security finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// NormalizeSeverity maps model-emitted severity strings onto the four-value
// enum. Synonyms collapse onto their nearest level; anything unrecognised
// defaults to MEDIUM so a creative model answer never drops a finding.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CRITICAL", "SEVERE":
		return SeverityCritical
	case "HIGH", "MAJOR":
		return SeverityHigh
	case "MEDIUM", "MODERATE":
		return SeverityMedium
	case "LOW", "MINOR", "INFO":
		return SeverityLow
	default:
		return SeverityMedium
	}
}
