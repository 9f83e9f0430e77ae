package scan

import (
	"sort"

	"github.com/codeguardian-ai/codeguardian/models"
)

// severityPenalty is the score deduction per finding.
var severityPenalty = map[models.Severity]int{
	models.SeverityCritical: 25,
	models.SeverityHigh:     10,
	models.SeverityMedium:   5,
	models.SeverityLow:      2,
}

// CalculateScore computes a repository security score from a scan's findings:
// 100 minus a per-finding penalty by severity, clamped to [0, 100]. An empty
// set scores 100.
func CalculateScore(vulns []models.Vulnerability) int {
	score := 100
	for _, v := range vulns {
		score -= severityPenalty[v.Severity]
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Summarize aggregates a scan's findings: total count, counts per severity
// (all four buckets always present), and the five most frequent vulnerability
// types. Ties between types keep first-observed order so repeated runs over
// the same findings summarize identically.
func Summarize(vulns []models.Vulnerability) models.ScanSummary {
	dist := map[string]int{
		string(models.SeverityCritical): 0,
		string(models.SeverityHigh):     0,
		string(models.SeverityMedium):   0,
		string(models.SeverityLow):      0,
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range vulns {
		dist[string(v.Severity)]++
		if _, seen := counts[v.Type]; !seen {
			order = append(order, v.Type)
		}
		counts[v.Type]++
	}

	top := make([]models.TypeCount, 0, len(order))
	for _, t := range order {
		top = append(top, models.TypeCount{Type: t, Count: counts[t]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 5 {
		top = top[:5]
	}

	return models.ScanSummary{
		Total:                 len(vulns),
		SeverityDistribution:  dist,
		TopVulnerabilityTypes: top,
	}
}
