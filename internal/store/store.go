// Package store is the typed persistence layer for the scan engine. It wraps
// the generic database.DB with the queries the orchestrator, gateway, and
// scheduler need, so none of them build SQL inline.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/database"
	"github.com/codeguardian-ai/codeguardian/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store provides typed access to users, repositories, scans, vulnerabilities
// and activities. Safe for concurrent use.
type Store struct {
	db    database.DB
	cache *statsCache
}

func New(db database.DB) *Store {
	return &Store{db: db, cache: newStatsCache(5 * time.Minute)}
}

// DB exposes the underlying connection for callers with bespoke queries.
func (s *Store) DB() database.DB { return s.db }

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// --- Users ---

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.Get(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id, err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Insert(ctx, "users", u); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// --- Repositories ---

func (s *Store) GetRepository(ctx context.Context, id string) (*models.Repository, error) {
	var r models.Repository
	err := s.db.Get(ctx, &r, `SELECT * FROM repositories WHERE id = ?`, id)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading repository %s: %w", id, err)
	}
	return &r, nil
}

func (s *Store) CreateRepository(ctx context.Context, r *models.Repository) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Branch == "" {
		r.Branch = "main"
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Insert(ctx, "repositories", r); err != nil {
		return fmt.Errorf("creating repository: %w", err)
	}
	return nil
}

// FindRepositoryByFullName resolves a repository by its "owner/name" slug,
// used by incoming webhooks which identify repositories that way.
func (s *Store) FindRepositoryByFullName(ctx context.Context, fullName string) (*models.Repository, error) {
	var r models.Repository
	err := s.db.Get(ctx, &r, `SELECT * FROM repositories WHERE full_name = ?`, fullName)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading repository %s: %w", fullName, err)
	}
	return &r, nil
}

// ListStaleRepositories returns repositories whose last scan is older than
// cutoff (or that were never scanned). Feeds the rescan sweep.
func (s *Store) ListStaleRepositories(ctx context.Context, cutoff time.Time) ([]models.Repository, error) {
	var repos []models.Repository
	err := s.db.Select(ctx, &repos,
		`SELECT * FROM repositories WHERE last_scan_at IS NULL OR last_scan_at < ? ORDER BY last_scan_at ASC`,
		cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("listing stale repositories: %w", err)
	}
	return repos, nil
}

// UpdateRepositoryScore writes back the denormalized score and scan time after
// a scan completes, and invalidates the repository's cached stats.
func (s *Store) UpdateRepositoryScore(ctx context.Context, repoID string, score int, scannedAt time.Time) error {
	err := s.db.Exec(ctx,
		`UPDATE repositories SET security_score = ?, last_scan_at = ? WHERE id = ?`,
		score, scannedAt.UTC(), repoID)
	if err != nil {
		return fmt.Errorf("updating repository score: %w", err)
	}
	s.cache.Invalidate("repo:" + repoID + ":stats")
	return nil
}

// --- Scans ---

func (s *Store) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if scan.Status == "" {
		scan.Status = models.ScanQueued
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Insert(ctx, "scans", scan); err != nil {
		return fmt.Errorf("creating scan: %w", err)
	}
	return nil
}

func (s *Store) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	var sc models.Scan
	err := s.db.Get(ctx, &sc, `SELECT * FROM scans WHERE id = ?`, id)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading scan %s: %w", id, err)
	}
	return &sc, nil
}

func (s *Store) ListScans(ctx context.Context, repoID string, limit int) ([]models.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	var scans []models.Scan
	err := s.db.Select(ctx, &scans,
		`SELECT * FROM scans WHERE repository_id = ? ORDER BY created_at DESC LIMIT ?`, repoID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

// MarkScanStarted transitions a scan to IN_PROGRESS and stamps started_at.
func (s *Store) MarkScanStarted(ctx context.Context, scanID string, totalFiles int, startedAt time.Time) error {
	err := s.db.Exec(ctx,
		`UPDATE scans SET status = ?, total_files = ?, started_at = ? WHERE id = ?`,
		models.ScanInProgress, totalFiles, startedAt.UTC(), scanID)
	if err != nil {
		return fmt.Errorf("marking scan started: %w", err)
	}
	return nil
}

func (s *Store) UpdateScanProgress(ctx context.Context, scanID string, scannedFiles int) error {
	err := s.db.Exec(ctx, `UPDATE scans SET scanned_files = ? WHERE id = ?`, scannedFiles, scanID)
	if err != nil {
		return fmt.Errorf("updating scan progress: %w", err)
	}
	return nil
}

// CompleteScan finalizes a successful scan with its aggregated results.
func (s *Store) CompleteScan(ctx context.Context, scanID string, score int, summary models.ScanSummary, scannedFiles int, completedAt time.Time) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding scan summary: %w", err)
	}
	err = s.db.Exec(ctx,
		`UPDATE scans SET status = ?, security_score = ?, summary = ?, vulnerabilities_found = ?, scanned_files = ?, completed_at = ? WHERE id = ?`,
		models.ScanCompleted, score, string(data), summary.Total, scannedFiles, completedAt.UTC(), scanID)
	if err != nil {
		return fmt.Errorf("completing scan: %w", err)
	}
	return nil
}

// FailScan marks a scan FAILED with its error message.
func (s *Store) FailScan(ctx context.Context, scanID, message string, completedAt time.Time) error {
	err := s.db.Exec(ctx,
		`UPDATE scans SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		models.ScanFailed, message, completedAt.UTC(), scanID)
	if err != nil {
		return fmt.Errorf("failing scan: %w", err)
	}
	return nil
}

// --- Vulnerabilities ---

// BulkInsertVulnerabilities persists all findings of a scan. Inserts are
// sequential; sqlite runs single-writer anyway and batches stay small.
func (s *Store) BulkInsertVulnerabilities(ctx context.Context, vulns []models.Vulnerability) error {
	for i := range vulns {
		if vulns[i].DiscoveredAt.IsZero() {
			vulns[i].DiscoveredAt = time.Now().UTC()
		}
		id, err := s.db.Insert(ctx, "vulnerabilities", &vulns[i])
		if err != nil {
			return fmt.Errorf("inserting vulnerability %d of %d: %w", i+1, len(vulns), err)
		}
		vulns[i].ID = id
	}
	return nil
}

func (s *Store) ListVulnerabilities(ctx context.Context, repoID string) ([]models.Vulnerability, error) {
	var vulns []models.Vulnerability
	err := s.db.Select(ctx, &vulns,
		`SELECT * FROM vulnerabilities WHERE repository_id = ? ORDER BY discovered_at DESC, id DESC`, repoID)
	if err != nil {
		return nil, fmt.Errorf("listing vulnerabilities: %w", err)
	}
	return vulns, nil
}

func (s *Store) ListScanVulnerabilities(ctx context.Context, scanID string) ([]models.Vulnerability, error) {
	var vulns []models.Vulnerability
	err := s.db.Select(ctx, &vulns,
		`SELECT * FROM vulnerabilities WHERE scan_id = ? ORDER BY id ASC`, scanID)
	if err != nil {
		return nil, fmt.Errorf("listing scan vulnerabilities: %w", err)
	}
	return vulns, nil
}

// --- Activities ---

func (s *Store) RecordActivity(ctx context.Context, userID, repoID, typ, description string) error {
	a := models.Activity{
		Type:         typ,
		Description:  description,
		UserID:       userID,
		RepositoryID: repoID,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.db.Insert(ctx, "activities", &a); err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// --- Stats ---

// RepoStats is the dashboard aggregate for one repository.
type RepoStats struct {
	RepositoryID       string         `json:"repository_id"`
	SecurityScore      *int           `json:"security_score"`
	TotalScans         int            `json:"total_scans"`
	OpenVulnerabilities int           `json:"open_vulnerabilities"`
	BySeverity         map[string]int `json:"by_severity"`
}

// RepoStats returns aggregate counts for a repository, cached briefly. Scan
// completion invalidates the entry so fresh results surface immediately.
func (s *Store) RepoStats(ctx context.Context, repoID string) (*RepoStats, error) {
	key := "repo:" + repoID + ":stats"
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*RepoStats), nil
	}

	repo, err := s.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}

	stats := &RepoStats{
		RepositoryID:  repoID,
		SecurityScore: repo.SecurityScore,
		BySeverity:    map[string]int{},
	}

	var scanCount struct {
		N int `db:"n"`
	}
	if err := s.db.Get(ctx, &scanCount, `SELECT COUNT(*) AS n FROM scans WHERE repository_id = ?`, repoID); err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("counting scans: %w", err)
	}
	stats.TotalScans = scanCount.N

	var rows []struct {
		Severity string `db:"severity"`
		N        int    `db:"n"`
	}
	err = s.db.Select(ctx, &rows,
		`SELECT severity, COUNT(*) AS n FROM vulnerabilities WHERE repository_id = ? GROUP BY severity`, repoID)
	if err != nil {
		return nil, fmt.Errorf("counting vulnerabilities: %w", err)
	}
	for _, r := range rows {
		stats.BySeverity[r.Severity] = r.N
		stats.OpenVulnerabilities += r.N
	}

	s.cache.Set(key, stats)
	return stats, nil
}
