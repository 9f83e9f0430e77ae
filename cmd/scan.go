package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/codeguardian-ai/codeguardian/internal/ai"
	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/githost"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
	"github.com/codeguardian-ai/codeguardian/internal/scan"
	"github.com/codeguardian-ai/codeguardian/models"
	"github.com/spf13/cobra"
)

var (
	scanRepoURL  string
	scanBranch   string
	scanToken    string
	scanLanguage string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Clone and scan a repository for vulnerabilities",
	Long: `Clones a repository and runs AI security analysis against its files,
printing the findings and the resulting security score.

Examples:
  codeguardian scan --repo https://github.com/example/myapp
  codeguardian scan --repo https://github.com/example/myapp --branch develop`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRepoURL, "repo", "", "Repository URL to scan (required)")
	scanCmd.Flags().StringVar(&scanBranch, "branch", "", "Branch to scan (default: repo default branch)")
	scanCmd.Flags().StringVar(&scanToken, "token", "", "Access token for private repositories (overrides config)")
	scanCmd.Flags().StringVar(&scanLanguage, "language", "", "Primary language hint for the analysis")
	_ = scanCmd.MarkFlagRequired("repo")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	provider, err := ai.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring AI provider: %w", err)
	}
	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("AI provider %q is not available; check credentials", provider.Name())
	}

	pol, err := policy.Load(cfg.Scanner.PolicyPath)
	if err != nil {
		return fmt.Errorf("loading scan policy: %w", err)
	}

	token := scanToken
	if token == "" {
		if strings.Contains(scanRepoURL, "gitlab") {
			token = cfg.Git.GitLabToken
		} else {
			token = cfg.Git.GitHubToken
		}
	}

	cm := githost.NewCloneManager()
	fmt.Printf("Cloning %s ...\n", scanRepoURL)
	clone, err := cm.Clone(ctx, scanRepoURL, token, scanBranch)
	if err != nil {
		return err
	}
	defer cm.Cleanup(clone)

	scanner := scan.NewLocalScanner(provider, pol, cfg.Scanner)
	result, err := scanner.Scan(ctx, clone.LocalPath, scanLanguage, func(p scan.Progress) {
		fmt.Printf("\r  Analyzing %d/%d files (%d%%)   ", p.ScannedFiles, p.TotalFiles, p.Percent)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	printScanResult(clone, result)
	return nil
}

var (
	scanTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	scanScoreStyle    = lipgloss.NewStyle().Bold(true)
	scanCriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	scanHighStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6600"))
	scanMediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	scanLowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0099FF"))
	scanDimStyle      = lipgloss.NewStyle().Faint(true)
)

func severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityCritical:
		return scanCriticalStyle
	case models.SeverityHigh:
		return scanHighStyle
	case models.SeverityMedium:
		return scanMediumStyle
	default:
		return scanLowStyle
	}
}

func printScanResult(clone *githost.CloneResult, result *scan.LocalResult) {
	fmt.Println()
	fmt.Println(scanTitleStyle.Render(fmt.Sprintf("Scan results for %s/%s @ %s", clone.Owner, clone.Repo, clone.Branch)))
	fmt.Printf("  Files analyzed  : %d\n", result.Files)
	fmt.Printf("  Vulnerabilities : %d\n", len(result.Vulnerabilities))
	fmt.Printf("  Security score  : %s\n", scanScoreStyle.Render(fmt.Sprintf("%d/100", result.Score)))

	if len(result.Vulnerabilities) == 0 {
		fmt.Println("\nNo vulnerabilities found.")
		return
	}

	fmt.Println()
	vulns := make([]models.Vulnerability, len(result.Vulnerabilities))
	copy(vulns, result.Vulnerabilities)
	sort.SliceStable(vulns, func(i, j int) bool {
		return vulns[i].Severity.Weight() > vulns[j].Severity.Weight()
	})

	for _, v := range vulns {
		style := severityStyle(v.Severity)
		fmt.Printf("%s %s\n", style.Render(fmt.Sprintf("[%s]", v.Severity)), v.Title)
		fmt.Printf("  %s\n", scanDimStyle.Render(fmt.Sprintf("%s:%d (%s)", v.FilePath, v.LineNumber, v.Type)))
		fmt.Printf("  %s\n\n", v.Recommendation)
	}

	if len(result.Summary.TopVulnerabilityTypes) > 0 {
		fmt.Println(scanTitleStyle.Render("Top vulnerability types"))
		for _, tc := range result.Summary.TopVulnerabilityTypes {
			fmt.Printf("  %-30s %d\n", tc.Type, tc.Count)
		}
	}
}
