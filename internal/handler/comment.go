package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/techpulse/techpulse/internal/auth"
	"github.com/techpulse/techpulse/internal/model"
	"github.com/techpulse/techpulse/internal/store"
	"github.com/techpulse/techpulse/internal/websocket"
)

type CommentHandler struct {
	comments *store.CommentStore
	posts    *store.PostStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewCommentHandler(cs *store.CommentStore, ps *store.PostStore, hub *websocket.Hub, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: cs,
		posts:    ps,
		hub:      hub,
		logger:   logger,
	}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	comments, err := h.comments.ListByPost(postID)
	if err != nil {
		h.logger.Error("list comments", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "Comment content is required")
		return
	}

	post, err := h.posts.GetByID(postID)
	if err != nil {
		h.logger.Error("get post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	comment, err := h.comments.Create(postID, u.UserID, u.Name, req.Content)
	if err != nil {
		h.logger.Error("create comment", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	ev := websocket.NewEvent("comment", "created", comment.ID)
	ev.PostID = postID
	h.hub.Broadcast(ev)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      comment.ID,
		"message": "Comment added successfully",
	})
}

// Delete removes a comment. Users may delete their own comments; admins may
// delete any. A miss answers 404 without distinguishing absent from
// not-owned.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var deleted bool
	switch p := mustPrincipal(r).(type) {
	case auth.AdminPrincipal:
		deleted, err = h.comments.Delete(id)
	case auth.UserPrincipal:
		deleted, err = h.comments.DeleteOwned(id, p.UserID)
	default:
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err != nil {
		h.logger.Error("delete comment", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Comment not found or access denied")
		return
	}

	ev := websocket.NewEvent("comment", "deleted", id)
	h.hub.Broadcast(ev)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
}

func mustPrincipal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}
