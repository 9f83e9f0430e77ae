package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/scan"
	"github.com/codeguardian-ai/codeguardian/internal/store"
	"github.com/codeguardian-ai/codeguardian/models"
)

// routes builds the HTTP handler. Callers authenticate upstream; the trusted
// X-User-ID header identifies the requesting user.
func (gw *Gateway) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /api/status", gw.handleStatus)

	mux.HandleFunc("POST /api/repositories/{id}/scan", gw.handleTriggerScan)
	mux.HandleFunc("GET /api/repositories/{id}/scans", gw.handleListScans)
	mux.HandleFunc("GET /api/repositories/{id}/vulnerabilities", gw.handleListVulnerabilities)
	mux.HandleFunc("GET /api/repositories/{id}/stats", gw.handleRepoStats)
	mux.HandleFunc("GET /api/scans/{id}", gw.handleGetScan)

	mux.HandleFunc("POST /api/webhooks/github", gw.handleGitHubWebhook)

	mux.Handle("GET /ws", gw.hub)

	return mux
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active_scans":   gw.orch.ActiveScans(),
		"uptime_seconds": int(time.Since(gw.startedAt).Seconds()),
	})
}

func (gw *Gateway) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}
	repoID := r.PathValue("id")

	s, err := gw.orch.TriggerScan(r.Context(), repoID, userID, models.TriggerManual)
	if err != nil {
		writeError(w, scanErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, s)
}

// scanErrorStatus maps orchestrator sentinel errors to HTTP status codes.
func scanErrorStatus(err error) int {
	switch {
	case errors.Is(err, scan.ErrRepoNotFound):
		return http.StatusNotFound
	case errors.Is(err, scan.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, scan.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, scan.ErrTooManyScans):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (gw *Gateway) handleGetScan(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	s, err := gw.store.GetScan(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.UserID != userID {
		writeError(w, http.StatusForbidden, "unauthorized access to scan")
		return
	}

	// Inline the decoded summary for completed scans.
	resp := map[string]any{"scan": s}
	if s.Summary != "" {
		var summary models.ScanSummary
		if json.Unmarshal([]byte(s.Summary), &summary) == nil {
			resp["summary"] = summary
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// authorizeRepo loads the repository and checks ownership. Writes the error
// response itself and returns nil when the caller should stop.
func (gw *Gateway) authorizeRepo(w http.ResponseWriter, r *http.Request) *models.Repository {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return nil
	}
	repo, err := gw.store.GetRepository(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repository not found")
		return nil
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if repo.UserID != userID {
		writeError(w, http.StatusForbidden, "unauthorized access to repository")
		return nil
	}
	return repo
}

func (gw *Gateway) handleListScans(w http.ResponseWriter, r *http.Request) {
	repo := gw.authorizeRepo(w, r)
	if repo == nil {
		return
	}
	scans, err := gw.store.ListScans(r.Context(), repo.ID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": scans})
}

func (gw *Gateway) handleListVulnerabilities(w http.ResponseWriter, r *http.Request) {
	repo := gw.authorizeRepo(w, r)
	if repo == nil {
		return
	}
	vulns, err := gw.store.ListVulnerabilities(r.Context(), repo.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vulnerabilities": vulns})
}

func (gw *Gateway) handleRepoStats(w http.ResponseWriter, r *http.Request) {
	repo := gw.authorizeRepo(w, r)
	if repo == nil {
		return
	}
	stats, err := gw.store.RepoStats(r.Context(), repo.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
