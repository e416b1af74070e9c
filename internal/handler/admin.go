package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/techpulse/techpulse/internal/model"
	"github.com/techpulse/techpulse/internal/store"
)

// IdleTimeout is how long a session may sit unused before the sweep removes
// it and recomputes the owning user's online flag.
const IdleTimeout = time.Hour

// AdminHandler serves the admin user-management surface. All routes are
// wrapped with the RequireAdmin guard.
type AdminHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAdminHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		users:    us,
		sessions: ss,
		logger:   logger,
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = h.users.Delete(id)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		IsOnline *bool `json:"is_online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsOnline == nil {
		writeError(w, http.StatusBadRequest, "is_online must be a boolean")
		return
	}

	err = h.users.SetOnline(id, *req.IsOnline)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("update user status", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User status updated successfully"})
}

// CleanupSessions runs the idle sweep on demand.
func (h *AdminHandler) CleanupSessions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.DeleteExpired(); err != nil {
		h.logger.Error("delete expired sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to cleanup sessions")
		return
	}
	count, err := h.sessions.SweepIdle(IdleTimeout)
	if err != nil {
		h.logger.Error("sweep idle sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to cleanup sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Cleaned up %d inactive sessions", count),
	})
}
