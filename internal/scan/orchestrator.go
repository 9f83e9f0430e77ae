package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/ai"
	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/events"
	"github.com/codeguardian-ai/codeguardian/internal/githost"
	"github.com/codeguardian-ai/codeguardian/internal/notify"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
	"github.com/codeguardian-ai/codeguardian/internal/store"
	"github.com/codeguardian-ai/codeguardian/models"
)

// maxCriticalAlerts caps how many per-finding alert notifications one scan
// sends.
const maxCriticalAlerts = 3

// Orchestrator owns the scan lifecycle: admission, the async pipeline, result
// persistence, and event fan-out. One instance serves the whole process.
type Orchestrator struct {
	store     *store.Store
	extractor *Extractor
	events    events.Publisher
	notifier  *notify.Dispatcher
	pol       *policy.Policy
	cfg       config.ScannerConfig
	git       config.GitConfig

	// newHost builds a host client per scan; swapped in tests.
	newHost func(provider, token string, git config.GitConfig) (githost.Client, error)

	// slots is the global concurrency semaphore.
	slots chan struct{}

	mu     sync.Mutex
	active map[string]struct{} // repository IDs with a running scan
}

func NewOrchestrator(st *store.Store, provider ai.Provider, pub events.Publisher, notifier *notify.Dispatcher, pol *policy.Policy, scannerCfg config.ScannerConfig, gitCfg config.GitConfig) *Orchestrator {
	maxScans := scannerCfg.MaxConcurrentScans
	if maxScans <= 0 {
		maxScans = 3
	}
	return &Orchestrator{
		store:     st,
		extractor: NewExtractor(provider, pol),
		events:    pub,
		notifier:  notifier,
		pol:       pol,
		cfg:       scannerCfg,
		git:       gitCfg,
		newHost:   githost.New,
		slots:     make(chan struct{}, maxScans),
		active:    make(map[string]struct{}),
	}
}

// TriggerScan admits and starts a scan of the repository on behalf of userID.
// It returns the created scan record immediately; the pipeline runs in the
// background. Admission failures return one of the package sentinel errors.
func (o *Orchestrator) TriggerScan(ctx context.Context, repoID, userID string, trigger models.TriggerSource) (*models.Scan, error) {
	repo, err := o.store.GetRepository(ctx, repoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRepoNotFound
	}
	if err != nil {
		return nil, err
	}
	if repo.UserID != userID {
		return nil, ErrForbidden
	}

	user, err := o.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	if err := o.admit(repoID); err != nil {
		return nil, err
	}

	scan := &models.Scan{
		RepositoryID: repoID,
		UserID:       userID,
		Status:       models.ScanQueued,
		TriggeredBy:  trigger,
	}
	if err := o.store.CreateScan(ctx, scan); err != nil {
		o.release(repoID)
		return nil, err
	}

	if err := o.store.RecordActivity(ctx, userID, repoID, models.ActivityScanStarted,
		fmt.Sprintf("Security scan started for %s", repo.Name)); err != nil {
		slog.Warn("scan: recording start activity", "scan", scan.ID, "error", err)
	}
	o.publish(ctx, userID, repoID, "scan:started", map[string]any{
		"scanId":       scan.ID,
		"repositoryId": repoID,
		"status":       models.ScanInProgress,
	})

	timeout := time.Duration(o.cfg.ScanTimeoutMin) * time.Minute
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	go func() {
		// The pipeline outlives the triggering request, so it gets its own
		// context bounded only by the scan timeout.
		runCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		defer o.release(repoID)

		if err := o.run(runCtx, scan, repo, user); err != nil {
			o.fail(scan, repo, err)
		}
	}()

	return scan, nil
}

// ActiveScans reports how many pipelines are currently running.
func (o *Orchestrator) ActiveScans() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active)
}

// admit reserves the per-repository lock and a global slot, or reports why it
// cannot.
func (o *Orchestrator) admit(repoID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, running := o.active[repoID]; running {
		return ErrScanInProgress
	}
	select {
	case o.slots <- struct{}{}:
	default:
		return ErrTooManyScans
	}
	o.active[repoID] = struct{}{}
	return nil
}

func (o *Orchestrator) release(repoID string) {
	o.mu.Lock()
	delete(o.active, repoID)
	<-o.slots
	o.mu.Unlock()
}

// run executes the pipeline for one admitted scan.
func (o *Orchestrator) run(ctx context.Context, scan *models.Scan, repo *models.Repository, user *models.User) error {
	host, err := o.newHost(repo.Provider, o.hostToken(repo.Provider, user), o.git)
	if err != nil {
		return fmt.Errorf("creating %s client: %w", repo.Provider, err)
	}

	entries, err := host.ListTree(ctx, repo.Owner(), repo.RepoName(), repo.Branch)
	if err != nil {
		return fmt.Errorf("listing repository files: %w", err)
	}

	files := SelectFiles(entries, o.pol)
	if len(files) == 0 {
		return errNoScannableFiles
	}

	slog.Info("scan: starting analysis",
		"scan", scan.ID, "repository", repo.FullName, "files", len(files))

	if err := o.store.MarkScanStarted(ctx, scan.ID, len(files), time.Now().UTC()); err != nil {
		return err
	}

	sched := &Scheduler{
		BatchSize: o.cfg.BatchSize,
		Pause:     time.Duration(o.cfg.BatchPauseMs) * time.Millisecond,
	}

	vulns, err := sched.Run(ctx, files,
		func(ctx context.Context, f File) []models.Vulnerability {
			return o.analyzeFile(ctx, host, repo, f)
		},
		func(p Progress) {
			o.publish(ctx, user.ID, repo.ID, "scan:progress", models.ScanProgress{
				ScanID:       scan.ID,
				Progress:     p.Percent,
				CurrentFile:  p.CurrentFile,
				ScannedFiles: p.ScannedFiles,
				TotalFiles:   p.TotalFiles,
			})
			if err := o.store.UpdateScanProgress(ctx, scan.ID, p.ScannedFiles); err != nil {
				slog.Debug("scan: persisting progress", "scan", scan.ID, "error", err)
			}
		})
	if err != nil {
		return err
	}

	for i := range vulns {
		vulns[i].ScanID = scan.ID
		vulns[i].RepositoryID = repo.ID
	}
	if err := o.store.BulkInsertVulnerabilities(ctx, vulns); err != nil {
		return err
	}

	score := CalculateScore(vulns)
	summary := Summarize(vulns)
	now := time.Now().UTC()

	if err := o.store.CompleteScan(ctx, scan.ID, score, summary, len(files), now); err != nil {
		return err
	}
	if err := o.store.UpdateRepositoryScore(ctx, repo.ID, score, now); err != nil {
		return err
	}
	if err := o.store.RecordActivity(ctx, user.ID, repo.ID, models.ActivityScanCompleted,
		fmt.Sprintf("Security scan completed for %s. Found %d vulnerabilities.", repo.Name, len(vulns))); err != nil {
		slog.Warn("scan: recording completion activity", "scan", scan.ID, "error", err)
	}

	critical := summary.SeverityDistribution[string(models.SeverityCritical)]
	o.publish(ctx, user.ID, repo.ID, "scan:completed", map[string]any{
		"scanId":                  scan.ID,
		"repositoryId":            repo.ID,
		"vulnerabilitiesFound":    len(vulns),
		"securityScore":           score,
		"criticalVulnerabilities": critical,
	})

	o.alertCritical(ctx, user, repo, vulns)

	slog.Info("scan: completed",
		"scan", scan.ID, "repository", repo.FullName,
		"vulnerabilities", len(vulns), "score", score)
	return nil
}

// analyzeFile fetches one file and runs AI analysis. Any failure degrades to
// zero findings for that file.
func (o *Orchestrator) analyzeFile(ctx context.Context, host githost.Client, repo *models.Repository, f File) []models.Vulnerability {
	content, err := host.GetFileContent(ctx, repo.Owner(), repo.RepoName(), f.Path, repo.Branch)
	if err != nil {
		slog.Warn("scan: fetching file failed", "file", f.Path, "error", err)
		return nil
	}
	if content == "" || len(content) > o.pol.MaxContentChars {
		return nil
	}
	return o.extractor.Analyze(ctx, f, content, repo.Language)
}

// fail finalizes a scan whose pipeline errored: terminal record, audit entry,
// scan:failed event.
func (o *Orchestrator) fail(scan *models.Scan, repo *models.Repository, cause error) {
	// The pipeline context may already be cancelled; finalization gets its
	// own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Error("scan: failed", "scan", scan.ID, "repository", repo.FullName, "error", cause)

	if err := o.store.FailScan(ctx, scan.ID, cause.Error(), time.Now().UTC()); err != nil {
		slog.Error("scan: marking scan failed", "scan", scan.ID, "error", err)
	}
	if err := o.store.RecordActivity(ctx, scan.UserID, repo.ID, models.ActivityScanFailed,
		fmt.Sprintf("Security scan failed: %s", cause.Error())); err != nil {
		slog.Warn("scan: recording failure activity", "scan", scan.ID, "error", err)
	}
	o.publish(ctx, scan.UserID, repo.ID, "scan:failed", map[string]any{
		"scanId":       scan.ID,
		"repositoryId": repo.ID,
		"error":        cause.Error(),
	})
}

// alertCritical notifies about the first few critical findings of a scan.
func (o *Orchestrator) alertCritical(ctx context.Context, user *models.User, repo *models.Repository, vulns []models.Vulnerability) {
	if o.notifier == nil || !o.notifier.IsAnyConfigured() {
		return
	}
	sent := 0
	for _, v := range vulns {
		if v.Severity != models.SeverityCritical {
			continue
		}
		o.notifier.Notify(ctx, notify.Event{
			Type:      "critical_finding",
			Title:     fmt.Sprintf("Critical vulnerability in %s: %s", repo.Name, v.Title),
			Body:      fmt.Sprintf("%s\n\nFile: %s (line %d)\n\nImpact: %s\n\nRecommendation: %s", v.Description, v.FilePath, v.LineNumber, v.Impact, v.Recommendation),
			URL:       repo.HTMLURL,
			Severity:  "critical",
			RepoKey:   repo.FullName,
			Recipient: user.Email,
		})
		sent++
		if sent >= maxCriticalAlerts {
			break
		}
	}
}

// publish fans an event out to the owning user's channel and the repository
// channel.
func (o *Orchestrator) publish(ctx context.Context, userID, repoID, event string, payload any) {
	o.events.Publish(ctx, "user:"+userID, event, payload)
	o.events.Publish(ctx, "repository:"+repoID, event, payload)
}

// hostToken picks the credential for a scan: the user's stored token when
// present, otherwise the service-level fallback.
func (o *Orchestrator) hostToken(provider string, user *models.User) string {
	if user.HostToken != "" {
		return user.HostToken
	}
	switch provider {
	case "gitlab":
		return o.git.GitLabToken
	default:
		return o.git.GitHubToken
	}
}
