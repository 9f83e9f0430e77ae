package scan

import "testing"

func TestParseResponseFencedBlock(t *testing.T) {
	resp := "Here is my analysis.\n```json\n[{\"type\":\"XSS\",\"severity\":\"HIGH\",\"lineNumber\":7,\"title\":\"Reflected XSS\"}]\n```\nLet me know if you need more."
	findings := ParseResponse(resp)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != "XSS" || f.Severity != "HIGH" || int(f.LineNumber) != 7 || f.Title != "Reflected XSS" {
		t.Fatalf("unexpected finding: %+v", f)
	}
}

func TestParseResponseBareArray(t *testing.T) {
	resp := `I found these issues: [{"type":"SQL_INJECTION","severity":"CRITICAL","lineNumber":12}] hope that helps`
	findings := ParseResponse(resp)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Type != "SQL_INJECTION" {
		t.Fatalf("unexpected type %q", findings[0].Type)
	}
}

func TestParseResponseEmptyArray(t *testing.T) {
	if got := ParseResponse("```json\n[]\n```"); len(got) != 0 {
		t.Fatalf("expected no findings, got %d", len(got))
	}
	if got := ParseResponse("No issues found: []"); len(got) != 0 {
		t.Fatalf("expected no findings, got %d", len(got))
	}
}

func TestParseResponseGarbageNeverErrors(t *testing.T) {
	for _, resp := range []string{
		"",
		"I could not analyse this file.",
		"```json\nnot json at all\n```",
		"[ broken json",
		"]",
		"[}{]",
	} {
		if got := ParseResponse(resp); len(got) != 0 {
			t.Errorf("ParseResponse(%q) = %d findings, want 0", resp, len(got))
		}
	}
}

func TestParseResponseStringLineNumber(t *testing.T) {
	resp := `[{"type":"CSRF","lineNumber":"23"},{"type":"XSS","lineNumber":"not a number"}]`
	findings := ParseResponse(resp)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if int(findings[0].LineNumber) != 23 {
		t.Fatalf("expected line 23, got %d", int(findings[0].LineNumber))
	}
	if int(findings[1].LineNumber) != 0 {
		t.Fatalf("expected unparseable line to coerce to 0, got %d", int(findings[1].LineNumber))
	}
}

func TestParseResponseFencedPreferredOverBare(t *testing.T) {
	// When a fenced block exists its content wins, even with brackets in the
	// surrounding prose.
	resp := "ignore [this] text\n```json\n[{\"type\":\"A\"}]\n```\nand [that] too"
	findings := ParseResponse(resp)
	if len(findings) != 1 || findings[0].Type != "A" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}
