package models

import "testing"

func TestNormalizeSeverity(t *testing.T) {
	cases := map[string]Severity{
		"CRITICAL": SeverityCritical,
		"SEVERE":   SeverityCritical,
		"HIGH":     SeverityHigh,
		"MAJOR":    SeverityHigh,
		"MEDIUM":   SeverityMedium,
		"MODERATE": SeverityMedium,
		"LOW":      SeverityLow,
		"MINOR":    SeverityLow,
		"INFO":     SeverityLow,
	}
	for in, want := range cases {
		if got := NormalizeSeverity(in); got != want {
			t.Errorf("NormalizeSeverity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeSeverityIsTotal(t *testing.T) {
	// Anything unrecognised maps to MEDIUM, never an empty value.
	for _, in := range []string{"", "bogus", "P0", "🔥", "critical-ish", "42"} {
		if got := NormalizeSeverity(in); got != SeverityMedium {
			t.Errorf("NormalizeSeverity(%q) = %q, want MEDIUM", in, got)
		}
	}
}

func TestNormalizeSeverityCaseAndSpace(t *testing.T) {
	if got := NormalizeSeverity("  severe "); got != SeverityCritical {
		t.Fatalf("expected CRITICAL, got %q", got)
	}
	if got := NormalizeSeverity("high"); got != SeverityHigh {
		t.Fatalf("expected HIGH, got %q", got)
	}
}

func TestSeverityWeightOrdering(t *testing.T) {
	if !(SeverityCritical.Weight() > SeverityHigh.Weight() &&
		SeverityHigh.Weight() > SeverityMedium.Weight() &&
		SeverityMedium.Weight() > SeverityLow.Weight()) {
		t.Fatal("severity weights are not strictly ordered")
	}
}
