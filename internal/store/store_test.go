package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/database"
	"github.com/codeguardian-ai/codeguardian/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return New(db)
}

func seedRepo(t *testing.T, st *Store) (*models.User, *models.Repository) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Email: "dev@example.com", Name: "Dev", HostToken: "tok"}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	r := &models.Repository{
		UserID:   u.ID,
		Provider: "github",
		Name:     "webapp",
		FullName: "acme/webapp",
	}
	if err := st.CreateRepository(ctx, r); err != nil {
		t.Fatalf("creating repository: %v", err)
	}
	return u, r
}

func TestUserRoundtrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Email: "a@b.com", Name: "A", HostToken: "secret"}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("CreateUser did not assign an ID")
	}

	got, err := st.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "a@b.com" || got.HostToken != "secret" {
		t.Fatalf("user did not round-trip: %+v", got)
	}

	if _, err := st.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHostTokenNotSerialized(t *testing.T) {
	data, err := json.Marshal(models.User{Email: "a@b.com", HostToken: "secret"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["host_token"]; ok {
		t.Fatal("host token leaked into the JSON representation")
	}
}

func TestRepositoryLookups(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, repo := seedRepo(t, st)

	if repo.Branch != "main" {
		t.Fatalf("default branch not applied: %q", repo.Branch)
	}

	got, err := st.FindRepositoryByFullName(ctx, "acme/webapp")
	if err != nil {
		t.Fatalf("FindRepositoryByFullName: %v", err)
	}
	if got.ID != repo.ID {
		t.Fatalf("wrong repository: %s != %s", got.ID, repo.ID)
	}
	if _, err := st.FindRepositoryByFullName(ctx, "acme/other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaleRepositories(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, repo := seedRepo(t, st)

	cutoff := time.Now().Add(-time.Hour)

	// Never scanned: stale.
	stale, err := st.ListStaleRepositories(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListStaleRepositories: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != repo.ID {
		t.Fatalf("expected one stale repository, got %+v", stale)
	}

	// Scanned just now: fresh.
	if err := st.UpdateRepositoryScore(ctx, repo.ID, 90, time.Now()); err != nil {
		t.Fatalf("UpdateRepositoryScore: %v", err)
	}
	stale, err = st.ListStaleRepositories(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListStaleRepositories: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("expected no stale repositories, got %+v", stale)
	}

	// Scanned before the cutoff: stale again.
	if err := st.UpdateRepositoryScore(ctx, repo.ID, 90, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("UpdateRepositoryScore: %v", err)
	}
	stale, err = st.ListStaleRepositories(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListStaleRepositories: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("expected one stale repository, got %+v", stale)
	}
}

func TestScanLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, repo := seedRepo(t, st)

	scan := &models.Scan{
		RepositoryID: repo.ID,
		UserID:       user.ID,
		TriggeredBy:  models.TriggerManual,
	}
	if err := st.CreateScan(ctx, scan); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if scan.Status != models.ScanQueued {
		t.Fatalf("expected QUEUED default, got %s", scan.Status)
	}

	if err := st.MarkScanStarted(ctx, scan.ID, 12, time.Now()); err != nil {
		t.Fatalf("MarkScanStarted: %v", err)
	}
	if err := st.UpdateScanProgress(ctx, scan.ID, 5); err != nil {
		t.Fatalf("UpdateScanProgress: %v", err)
	}

	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.Status != models.ScanInProgress || got.TotalFiles != 12 || got.ScannedFiles != 5 {
		t.Fatalf("mid-scan state wrong: %+v", got)
	}
	if got.StartedAt == nil {
		t.Fatal("started_at not stamped")
	}

	summary := models.ScanSummary{
		Total:                2,
		SeverityDistribution: map[string]int{"CRITICAL": 1, "HIGH": 1, "MEDIUM": 0, "LOW": 0},
		TopVulnerabilityTypes: []models.TypeCount{
			{Type: "SQL_INJECTION", Count: 1},
			{Type: "XSS", Count: 1},
		},
	}
	if err := st.CompleteScan(ctx, scan.ID, 65, summary, 12, time.Now()); err != nil {
		t.Fatalf("CompleteScan: %v", err)
	}

	got, err = st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.Status != models.ScanCompleted || got.VulnerabilitiesFound != 2 {
		t.Fatalf("completion state wrong: %+v", got)
	}
	if got.SecurityScore == nil || *got.SecurityScore != 65 {
		t.Fatalf("score not persisted: %v", got.SecurityScore)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	var decoded models.ScanSummary
	if err := json.Unmarshal([]byte(got.Summary), &decoded); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if decoded.Total != 2 || decoded.SeverityDistribution["CRITICAL"] != 1 {
		t.Fatalf("summary did not round-trip: %+v", decoded)
	}
}

func TestFailScan(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, repo := seedRepo(t, st)

	scan := &models.Scan{RepositoryID: repo.ID, UserID: user.ID, TriggeredBy: models.TriggerWebhook}
	if err := st.CreateScan(ctx, scan); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if err := st.FailScan(ctx, scan.ID, "clone failed", time.Now()); err != nil {
		t.Fatalf("FailScan: %v", err)
	}
	got, err := st.GetScan(ctx, scan.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.Status != models.ScanFailed || got.ErrorMessage != "clone failed" {
		t.Fatalf("failure state wrong: %+v", got)
	}
}

func TestVulnerabilitiesByScanAndRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, repo := seedRepo(t, st)

	scan := &models.Scan{RepositoryID: repo.ID, UserID: user.ID, TriggeredBy: models.TriggerManual}
	if err := st.CreateScan(ctx, scan); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	vulns := []models.Vulnerability{
		{ScanID: scan.ID, RepositoryID: repo.ID, Type: "XSS", Severity: models.SeverityHigh, FilePath: "a.js", LineNumber: 3, Title: "a"},
		{ScanID: scan.ID, RepositoryID: repo.ID, Type: "SQL_INJECTION", Severity: models.SeverityCritical, FilePath: "b.js", LineNumber: 9, Title: "b"},
	}
	if err := st.BulkInsertVulnerabilities(ctx, vulns); err != nil {
		t.Fatalf("BulkInsertVulnerabilities: %v", err)
	}
	if vulns[0].ID == 0 || vulns[1].ID == 0 {
		t.Fatalf("insert did not assign IDs: %+v", vulns)
	}

	byScan, err := st.ListScanVulnerabilities(ctx, scan.ID)
	if err != nil {
		t.Fatalf("ListScanVulnerabilities: %v", err)
	}
	if len(byScan) != 2 || byScan[0].Type != "XSS" {
		t.Fatalf("scan listing wrong: %+v", byScan)
	}

	byRepo, err := st.ListVulnerabilities(ctx, repo.ID)
	if err != nil {
		t.Fatalf("ListVulnerabilities: %v", err)
	}
	if len(byRepo) != 2 {
		t.Fatalf("repo listing wrong: %+v", byRepo)
	}
}

func TestRepoStatsCaching(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, repo := seedRepo(t, st)

	stats, err := st.RepoStats(ctx, repo.ID)
	if err != nil {
		t.Fatalf("RepoStats: %v", err)
	}
	if stats.TotalScans != 0 || stats.OpenVulnerabilities != 0 {
		t.Fatalf("empty stats wrong: %+v", stats)
	}

	scan := &models.Scan{RepositoryID: repo.ID, UserID: user.ID, TriggeredBy: models.TriggerManual}
	if err := st.CreateScan(ctx, scan); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if err := st.BulkInsertVulnerabilities(ctx, []models.Vulnerability{
		{ScanID: scan.ID, RepositoryID: repo.ID, Type: "XSS", Severity: models.SeverityHigh, FilePath: "a.js", LineNumber: 1, Title: "a"},
	}); err != nil {
		t.Fatalf("BulkInsertVulnerabilities: %v", err)
	}

	// Cached: the new scan is not visible yet.
	stats, err = st.RepoStats(ctx, repo.ID)
	if err != nil {
		t.Fatalf("RepoStats: %v", err)
	}
	if stats.TotalScans != 0 {
		t.Fatalf("expected cached stats, got %+v", stats)
	}

	// Score write-back invalidates the cache.
	if err := st.UpdateRepositoryScore(ctx, repo.ID, 90, time.Now()); err != nil {
		t.Fatalf("UpdateRepositoryScore: %v", err)
	}
	stats, err = st.RepoStats(ctx, repo.ID)
	if err != nil {
		t.Fatalf("RepoStats: %v", err)
	}
	if stats.TotalScans != 1 || stats.OpenVulnerabilities != 1 || stats.BySeverity["HIGH"] != 1 {
		t.Fatalf("refreshed stats wrong: %+v", stats)
	}
	if stats.SecurityScore == nil || *stats.SecurityScore != 90 {
		t.Fatalf("score missing from stats: %v", stats.SecurityScore)
	}
}
