package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/techpulse/techpulse/internal/email"
)

// SystemHandler serves liveness and notifier diagnostics.
type SystemHandler struct {
	emailClient *email.Client
	logger      *slog.Logger
}

func NewSystemHandler(ec *email.Client, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{emailClient: ec, logger: logger}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "TechPulse Blog API is running",
	})
}

func (h *SystemHandler) EmailStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"emailConfigured": h.emailClient != nil && h.emailClient.Configured(),
	})
}

// TestEmail pushes a fixed code through the notifier so operators can check
// delivery without registering an account.
func (h *SystemHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email address is required")
		return
	}

	const testCode = "123456"
	if h.emailClient == nil || !h.emailClient.Configured() {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":         "Test email logged (email not configured)",
			"testCode":        testCode,
			"emailConfigured": false,
		})
		return
	}
	if err := h.emailClient.SendVerificationCode(req.Email, testCode); err != nil {
		h.logger.Error("send test email", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":         "Test email failed, check server logs",
			"emailConfigured": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Test email sent successfully",
		"emailConfigured": true,
	})
}
