package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeguardian-ai/codeguardian/internal/ai"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
	"github.com/codeguardian-ai/codeguardian/models"
)

// Extractor turns one file's content into structured vulnerabilities by
// prompting the AI provider and normalizing whatever comes back. Analysis
// failures degrade to zero findings; a single bad file never fails a scan.
type Extractor struct {
	provider ai.Provider
	policy   *policy.Policy
}

func NewExtractor(provider ai.Provider, pol *policy.Policy) *Extractor {
	return &Extractor{provider: provider, policy: pol}
}

// Analyze prompts the model about one file and returns normalized findings.
// repoLanguage is the repository's primary language, for prompt context only.
func (e *Extractor) Analyze(ctx context.Context, file File, content, repoLanguage string) []models.Vulnerability {
	prompt := e.buildPrompt(file, content, repoLanguage)

	response, err := e.provider.Analyze(ctx, prompt)
	if err != nil {
		slog.Warn("scan: AI analysis failed", "file", file.Path, "error", err)
		return nil
	}

	raw := ParseResponse(response)
	vulns := make([]models.Vulnerability, 0, len(raw))
	for _, r := range raw {
		vulns = append(vulns, normalizeFinding(r, file, content))
	}
	return vulns
}

// normalizeFinding fills defaults for every missing field so downstream code
// never sees an empty record, whatever the model omitted.
func normalizeFinding(r RawFinding, file File, content string) models.Vulnerability {
	line := int(r.LineNumber)
	if line <= 0 {
		line = 1
	}
	return models.Vulnerability{
		Type:           defaultStr(r.Type, "UNKNOWN"),
		Severity:       models.NormalizeSeverity(r.Severity),
		Title:          defaultStr(r.Title, "Security Issue"),
		Description:    defaultStr(r.Description, "No description provided"),
		Impact:         defaultStr(r.Impact, "Potential security risk"),
		Recommendation: defaultStr(r.Recommendation, "Review code for security best practices"),
		FilePath:       file.Path,
		FileName:       file.Name,
		LineNumber:     line,
		CodeSnippet:    extractSnippet(content, line),
		Confidence:     defaultStr(r.Confidence, "MEDIUM"),
	}
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// extractSnippet returns the lines around line (two before through two after),
// each prefixed with its 1-based line number.
func extractSnippet(content string, line int) string {
	lines := strings.Split(content, "\n")
	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d: %s", i+1, lines[i])
	}
	return b.String()
}

func (e *Extractor) buildPrompt(file File, content, repoLanguage string) string {
	if repoLanguage == "" {
		repoLanguage = "unknown"
	}

	truncated := content
	suffix := ""
	if len(truncated) > e.policy.MaxPromptChars {
		truncated = truncated[:e.policy.MaxPromptChars]
		suffix = "... (truncated)"
	}

	var focus strings.Builder
	for _, area := range e.policy.FocusAreas {
		focus.WriteString("- ")
		focus.WriteString(area)
		focus.WriteByte('\n')
	}

	return fmt.Sprintf(`You are a security expert analyzing code for vulnerabilities. Analyze the following %s file from a %s project and identify security vulnerabilities.

File: %s
Path: %s
Language: %s

Code Content:
`+"```"+`
%s %s
`+"```"+`

Please analyze this code and identify security vulnerabilities. For each vulnerability found, provide:

1. **Type**: The category of vulnerability (e.g., SQL Injection, XSS, CSRF, etc.)
2. **Severity**: CRITICAL, HIGH, MEDIUM, or LOW
3. **Line Number**: The approximate line where the issue occurs
4. **Title**: A brief descriptive title
5. **Description**: Detailed explanation of the vulnerability
6. **Impact**: Potential security impact
7. **Recommendation**: How to fix the vulnerability

Focus on:
%s
Format your response as a JSON array of vulnerability objects:

`+"```json"+`
[
  {
    "type": "SQL_INJECTION",
    "severity": "HIGH",
    "lineNumber": 42,
    "title": "SQL Injection in user query",
    "description": "User input is directly concatenated into SQL query without sanitization",
    "impact": "Attackers could execute arbitrary SQL commands and access sensitive data",
    "recommendation": "Use parameterized queries or prepared statements"
  }
]
`+"```"+`

If no vulnerabilities are found, return an empty array: []`,
		file.Name, repoLanguage, file.Name, file.Path, DetectLanguage(file.Name),
		truncated, suffix, focus.String())
}
