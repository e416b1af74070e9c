package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/techpulse/techpulse/internal/model"
	"github.com/techpulse/techpulse/internal/store"
	"github.com/techpulse/techpulse/internal/websocket"
)

// maxImageSize caps uploaded post images at 5 MiB.
const maxImageSize = 5 << 20

// PostHandler serves the public article feed and the admin-gated post CRUD,
// including multipart image uploads.
type PostHandler struct {
	posts     *store.PostStore
	hub       *websocket.Hub
	uploadDir string
	logger    *slog.Logger
}

func NewPostHandler(ps *store.PostStore, hub *websocket.Hub, uploadDir string, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:     ps,
		hub:       hub,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List()
	if err != nil {
		h.logger.Error("list posts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": posts})
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	post, err := h.posts.GetByID(id)
	if err != nil {
		h.logger.Error("get post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch post")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// postForm parses the multipart (or urlencoded) post fields shared by
// Create and Update. Tags arrive as a JSON array string; malformed tags
// decay to empty rather than failing the request.
func (h *PostHandler) postForm(r *http.Request) (model.Post, error) {
	var p model.Post

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageSize + 1<<20); err != nil {
			return p, err
		}
	} else if err := r.ParseForm(); err != nil {
		return p, err
	}

	p.Title = strings.TrimSpace(r.FormValue("title"))
	p.Category = strings.TrimSpace(r.FormValue("category"))
	p.Excerpt = r.FormValue("excerpt")
	p.Author = strings.TrimSpace(r.FormValue("author"))
	p.AuthorInitials = r.FormValue("authorInitials")
	p.Date = r.FormValue("date")
	p.Content = r.FormValue("content")

	p.Tags = []string{}
	if tags := r.FormValue("tags"); tags != "" {
		json.Unmarshal([]byte(tags), &p.Tags)
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	return p, nil
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := h.postForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	if p.Title == "" || p.Category == "" || p.Author == "" || p.Content == "" {
		writeError(w, http.StatusBadRequest, "Title, category, author, and content are required")
		return
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image, err := h.saveImage(file, header)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Image = image
	}

	post, err := h.posts.Create(p)
	if err != nil {
		h.logger.Error("create post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	h.hub.Broadcast(websocket.NewEvent("post", "created", post.ID))
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      post.ID,
		"message": "Post created successfully",
	})
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.posts.GetByID(id)
	if err != nil {
		h.logger.Error("get post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	p, err := h.postForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	if p.Title == "" || p.Category == "" || p.Author == "" || p.Content == "" {
		writeError(w, http.StatusBadRequest, "Title, category, author, and content are required")
		return
	}

	p.Image = r.FormValue("existingImage")
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image, err := h.saveImage(file, header)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Image = image
		if existing.Image != "" && existing.Image != image {
			h.removeImage(existing.Image)
		}
	}

	if _, err := h.posts.Update(id, p); err != nil {
		h.logger.Error("update post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	h.hub.Broadcast(websocket.NewEvent("post", "updated", id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post updated successfully"})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	post, err := h.posts.GetByID(id)
	if err != nil {
		h.logger.Error("get post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	if err := h.posts.Delete(id); err != nil {
		h.logger.Error("delete post", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	if post.Image != "" {
		h.removeImage(post.Image)
	}

	h.hub.Broadcast(websocket.NewEvent("post", "deleted", id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// saveImage writes an uploaded image under the upload dir with a UUID
// filename and returns its public path.
func (h *PostHandler) saveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > maxImageSize {
		return "", errImageTooLarge
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return "", errNotAnImage
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", errImageStore
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", errImageStore
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxImageSize)); err != nil {
		return "", errImageStore
	}
	return "/images/" + name, nil
}

// removeImage deletes a stored image file. Only paths under /images/ are
// touched; anything else in the image column is left alone.
func (h *PostHandler) removeImage(imagePath string) {
	if !strings.HasPrefix(imagePath, "/images/") {
		return
	}
	path := filepath.Join(h.uploadDir, filepath.Base(imagePath))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("remove image", "path", path, "error", err)
	}
}

var (
	errImageTooLarge = &imageError{"File too large. Maximum size is 5MB."}
	errNotAnImage    = &imageError{"Only image files are allowed!"}
	errImageStore    = &imageError{"Failed to store image"}
)

type imageError struct{ msg string }

func (e *imageError) Error() string { return e.msg }
