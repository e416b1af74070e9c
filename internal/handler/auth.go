package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/techpulse/techpulse/internal/auth"
	"github.com/techpulse/techpulse/internal/store"
)

// AuthHandler serves the admin authentication flows. Admin accounts are
// seeded at startup; there is no admin registration and no verification
// gate for admins.
type AuthHandler struct {
	admins   *store.AdminStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(as *store.AdminStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		admins:   as,
		sessions: ss,
		logger:   logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	admin, err := h.admins.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("admin lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	// Generic response for both unknown username and wrong password, so
	// callers cannot enumerate accounts.
	if admin == nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	sess, err := h.sessions.CreateAdmin(admin.ID)
	if err != nil {
		h.logger.Error("create admin session", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	setSessionCookie(w, sess.Token)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"admin":   map[string]any{"id": admin.ID, "username": admin.Username},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if a, ok := auth.AdminFromContext(r.Context()); ok {
		if err := h.sessions.Delete(a.SessionID); err != nil {
			h.logger.Error("delete admin session", "error", err)
			writeError(w, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	a, ok := auth.AdminFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"admin":         map[string]any{"id": a.AdminID, "username": a.Username},
	})
}
