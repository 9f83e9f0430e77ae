package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codeguardian-ai/codeguardian/internal/scan"
	"github.com/codeguardian-ai/codeguardian/internal/store"
	"github.com/codeguardian-ai/codeguardian/models"
)

const maxWebhookBody = 1 << 20

// pushPayload is the subset of a GitHub push event the gateway reads.
type pushPayload struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// handleGitHubWebhook accepts push events and triggers a WEBHOOK scan of the
// matching connected repository. The signature check uses the shared secret
// registered when the webhook was created.
func (gw *Gateway) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}

	secret := gw.cfg.Git.WebhookSecret
	if secret != "" && !verifySignature(body, r.Header.Get("X-Hub-Signature-256"), secret) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	if event := r.Header.Get("X-GitHub-Event"); event != "push" {
		// Ping and everything else are acknowledged and ignored.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.Repository.FullName == "" {
		writeError(w, http.StatusBadRequest, "missing repository")
		return
	}

	repo, err := gw.store.FindRepositoryByFullName(r.Context(), payload.Repository.FullName)
	if errors.Is(err, store.ErrNotFound) {
		// Not a connected repository; acknowledge so the host stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"status": "unknown repository"})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Only pushes to the tracked branch trigger a rescan.
	if payload.Ref != "" && payload.Ref != "refs/heads/"+repo.Branch {
		writeJSON(w, http.StatusOK, map[string]string{"status": "branch ignored"})
		return
	}

	s, err := gw.orch.TriggerScan(r.Context(), repo.ID, repo.UserID, models.TriggerWebhook)
	if err != nil {
		// Concurrency rejections are expected under push storms; report them
		// as accepted-but-skipped rather than failing the delivery.
		if errors.Is(err, scan.ErrScanInProgress) || errors.Is(err, scan.ErrTooManyScans) {
			slog.Info("gateway: webhook scan skipped", "repository", repo.FullName, "reason", err)
			writeJSON(w, http.StatusOK, map[string]string{"status": "skipped", "reason": err.Error()})
			return
		}
		writeError(w, scanErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan triggered", "scan_id": s.ID})
}

// verifySignature checks a GitHub X-Hub-Signature-256 header value against
// the body using constant-time comparison.
func verifySignature(body []byte, header, secret string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}
