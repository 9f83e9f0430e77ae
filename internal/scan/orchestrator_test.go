package scan

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/database"
	"github.com/codeguardian-ai/codeguardian/internal/githost"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
	"github.com/codeguardian-ai/codeguardian/internal/store"
	"github.com/codeguardian-ai/codeguardian/models"
)

// fakeHost serves a fixed tree and content map. unblock, when set, delays
// ListTree until the channel closes, keeping a pipeline occupied.
type fakeHost struct {
	entries []githost.TreeEntry
	content map[string]string
	unblock chan struct{}
}

func (f *fakeHost) Name() string { return "github" }
func (f *fakeHost) ListTree(ctx context.Context, _, _, _ string) ([]githost.TreeEntry, error) {
	if f.unblock != nil {
		select {
		case <-f.unblock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.entries, nil
}
func (f *fakeHost) GetFileContent(_ context.Context, _, _, path, _ string) (string, error) {
	return f.content[path], nil
}
func (f *fakeHost) DefaultBranch(_ context.Context, _, _ string) (string, error) { return "main", nil }
func (f *fakeHost) CreateWebhook(_ context.Context, _, _, _, _ string) error     { return nil }

// capturePublisher records events per channel in arrival order.
type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Channel string
	Event   string
	Payload any
}

func (c *capturePublisher) Publish(_ context.Context, channel, event string, payload any) {
	c.mu.Lock()
	c.events = append(c.events, capturedEvent{channel, event, payload})
	c.mu.Unlock()
}

func (c *capturePublisher) names(channel string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		if e.Channel == channel {
			out = append(out, e.Event)
		}
	}
	return out
}

type orchFixture struct {
	orch   *Orchestrator
	store  *store.Store
	pub    *capturePublisher
	userID string
	repoID string
}

func newOrchFixture(t *testing.T, host githost.Client, provider *fakeProvider, maxScans int) *orchFixture {
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

	st := store.New(db)
	ctx := context.Background()

	user := &models.User{Email: "dev@example.com", Name: "Dev", HostToken: "tok"}
	if err := st.CreateUser(ctx, user); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	repo := &models.Repository{
		UserID:   user.ID,
		Provider: "github",
		Name:     "webapp",
		FullName: "acme/webapp",
		Branch:   "main",
		Language: "JavaScript",
	}
	if err := st.CreateRepository(ctx, repo); err != nil {
		t.Fatalf("creating repository: %v", err)
	}

	pub := &capturePublisher{}
	orch := NewOrchestrator(st, provider, pub, nil, policy.Default(),
		config.ScannerConfig{MaxConcurrentScans: maxScans, BatchSize: 5, ScanTimeoutMin: 1},
		config.GitConfig{})
	orch.newHost = func(_, _ string, _ config.GitConfig) (githost.Client, error) {
		return host, nil
	}

	return &orchFixture{orch: orch, store: st, pub: pub, userID: user.ID, repoID: repo.ID}
}

// waitTerminal polls until the scan reaches COMPLETED or FAILED.
func (fx *orchFixture) waitTerminal(t *testing.T, scanID string) *models.Scan {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s, err := fx.store.GetScan(context.Background(), scanID)
		if err != nil {
			t.Fatalf("loading scan: %v", err)
		}
		if s.Status == models.ScanCompleted || s.Status == models.ScanFailed {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scan did not reach a terminal state")
	return nil
}

func TestTriggerScanCompletes(t *testing.T) {
	host := &fakeHost{
		entries: []githost.TreeEntry{
			{Path: "src/app.js", Size: 100},
			{Path: "README.md", Size: 100},
		},
		content: map[string]string{
			"src/app.js": "eval(userInput)\n",
		},
	}
	provider := &fakeProvider{response: "```json\n[{\"type\":\"CODE_INJECTION\",\"severity\":\"CRITICAL\",\"lineNumber\":1,\"title\":\"eval of user input\"}]\n```"}
	fx := newOrchFixture(t, host, provider, 3)

	s, err := fx.orch.TriggerScan(context.Background(), fx.repoID, fx.userID, models.TriggerManual)
	if err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	if s.Status != models.ScanQueued {
		t.Fatalf("expected QUEUED at creation, got %s", s.Status)
	}

	final := fx.waitTerminal(t, s.ID)
	if final.Status != models.ScanCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", final.Status, final.ErrorMessage)
	}
	if final.TotalFiles != 1 || final.VulnerabilitiesFound != 1 {
		t.Fatalf("unexpected counters: %+v", final)
	}
	if final.SecurityScore == nil || *final.SecurityScore != 75 {
		t.Fatalf("expected score 75, got %v", final.SecurityScore)
	}

	repo, err := fx.store.GetRepository(context.Background(), fx.repoID)
	if err != nil {
		t.Fatalf("loading repository: %v", err)
	}
	if repo.SecurityScore == nil || *repo.SecurityScore != 75 || repo.LastScanAt == nil {
		t.Fatalf("repository score not written back: %+v", repo)
	}

	vulns, err := fx.store.ListScanVulnerabilities(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("listing vulnerabilities: %v", err)
	}
	if len(vulns) != 1 || vulns[0].RepositoryID != fx.repoID {
		t.Fatalf("vulnerabilities not persisted correctly: %+v", vulns)
	}

	events := fx.pub.names("user:" + fx.userID)
	if len(events) < 3 || events[0] != "scan:started" || events[len(events)-1] != "scan:completed" {
		t.Fatalf("unexpected event order: %v", events)
	}
	for _, e := range events[1 : len(events)-1] {
		if e != "scan:progress" {
			t.Fatalf("unexpected mid-stream event %q in %v", e, events)
		}
	}
	if repoEvents := fx.pub.names("repository:" + fx.repoID); len(repoEvents) != len(events) {
		t.Fatalf("repository channel not mirrored: %v vs %v", repoEvents, events)
	}
}

func TestTriggerScanEmptyTreeFails(t *testing.T) {
	host := &fakeHost{entries: []githost.TreeEntry{{Path: "README.md", Size: 10}}}
	fx := newOrchFixture(t, host, &fakeProvider{response: "[]"}, 3)

	s, err := fx.orch.TriggerScan(context.Background(), fx.repoID, fx.userID, models.TriggerManual)
	if err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	final := fx.waitTerminal(t, s.ID)
	if final.Status != models.ScanFailed {
		t.Fatalf("expected FAILED, got %s", final.Status)
	}
	if final.ErrorMessage != "No scannable files found in repository" {
		t.Fatalf("unexpected error message %q", final.ErrorMessage)
	}

	events := fx.pub.names("user:" + fx.userID)
	if len(events) == 0 || events[len(events)-1] != "scan:failed" {
		t.Fatalf("expected terminal scan:failed event, got %v", events)
	}
}

func TestTriggerScanUnknownRepo(t *testing.T) {
	fx := newOrchFixture(t, &fakeHost{}, &fakeProvider{response: "[]"}, 3)
	if _, err := fx.orch.TriggerScan(context.Background(), "nope", fx.userID, models.TriggerManual); !errors.Is(err, ErrRepoNotFound) {
		t.Fatalf("expected ErrRepoNotFound, got %v", err)
	}
}

func TestTriggerScanForbidden(t *testing.T) {
	fx := newOrchFixture(t, &fakeHost{}, &fakeProvider{response: "[]"}, 3)

	other := &models.User{Email: "other@example.com", Name: "Other"}
	if err := fx.store.CreateUser(context.Background(), other); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if _, err := fx.orch.TriggerScan(context.Background(), fx.repoID, other.ID, models.TriggerManual); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTriggerScanConflictAndCapacity(t *testing.T) {
	unblock := make(chan struct{})
	host := &fakeHost{
		entries: []githost.TreeEntry{{Path: "a.go", Size: 10}},
		content: map[string]string{"a.go": "package a"},
		unblock: unblock,
	}
	fx := newOrchFixture(t, host, &fakeProvider{response: "[]"}, 1)

	s1, err := fx.orch.TriggerScan(context.Background(), fx.repoID, fx.userID, models.TriggerManual)
	if err != nil {
		t.Fatalf("first TriggerScan: %v", err)
	}

	// Same repository: rejected as already running.
	if _, err := fx.orch.TriggerScan(context.Background(), fx.repoID, fx.userID, models.TriggerManual); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}

	// Different repository: rejected because the single slot is taken.
	repo2 := &models.Repository{UserID: fx.userID, Provider: "github", Name: "other", FullName: "acme/other", Branch: "main"}
	if err := fx.store.CreateRepository(context.Background(), repo2); err != nil {
		t.Fatalf("creating repository: %v", err)
	}
	if _, err := fx.orch.TriggerScan(context.Background(), repo2.ID, fx.userID, models.TriggerManual); !errors.Is(err, ErrTooManyScans) {
		t.Fatalf("expected ErrTooManyScans, got %v", err)
	}

	close(unblock)
	fx.waitTerminal(t, s1.ID)

	// Slot released: the second repository is admitted now.
	s2, err := fx.orch.TriggerScan(context.Background(), repo2.ID, fx.userID, models.TriggerManual)
	if err != nil {
		t.Fatalf("TriggerScan after release: %v", err)
	}
	fx.waitTerminal(t, s2.ID)
}
