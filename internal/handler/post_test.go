package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/techpulse/techpulse/internal/model"
	"github.com/techpulse/techpulse/internal/store"
	"github.com/techpulse/techpulse/internal/websocket"
)

func newPostTestHandler(t *testing.T) (*PostHandler, *store.PostStore, string) {
	t.Helper()
	db := testDB(t)
	ps := store.NewPostStore(db)
	uploadDir := t.TempDir()
	h := NewPostHandler(ps, websocket.NewHub(testLogger()), uploadDir, testLogger())
	return h, ps, uploadDir
}

func postFormValues(title string) url.Values {
	return url.Values{
		"title":    {title},
		"category": {"Technology"},
		"excerpt":  {"A short excerpt."},
		"author":   {"Jane Doe"},
		"content":  {"Full article body."},
		"tags":     {`["go","sqlite"]`},
	}
}

func formRequest(t *testing.T, method, target string, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestPostListEmpty(t *testing.T) {
	h, _, _ := newPostTestHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	articles, ok := body["articles"].([]any)
	if !ok {
		t.Fatalf("articles = %v, want JSON array", body["articles"])
	}
	if len(articles) != 0 {
		t.Errorf("len = %d, want 0", len(articles))
	}
}

func TestPostGetNotFound(t *testing.T) {
	h, _, _ := newPostTestHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/api/posts/99", nil)
	r.SetPathValue("id", "99")
	rec := httptest.NewRecorder()
	h.Get(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := decodeBody(t, rec); body["error"] != "Post not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestPostCreateForm(t *testing.T) {
	h, ps, _ := newPostTestHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, formRequest(t, http.MethodPost, "/api/posts", postFormValues("Hello")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	posts, err := ps.List()
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len = %d, want 1", len(posts))
	}
	if posts[0].Title != "Hello" {
		t.Errorf("title = %q", posts[0].Title)
	}
	if len(posts[0].Tags) != 2 || posts[0].Tags[0] != "go" {
		t.Errorf("tags = %v", posts[0].Tags)
	}
}

func TestPostCreateMissingFields(t *testing.T) {
	h, _, _ := newPostTestHandler(t)

	form := postFormValues("Hello")
	form.Del("content")
	rec := httptest.NewRecorder()
	h.Create(rec, formRequest(t, http.MethodPost, "/api/posts", form))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeBody(t, rec); body["error"] != "Title, category, author, and content are required" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestPostCreateMalformedTags(t *testing.T) {
	h, ps, _ := newPostTestHandler(t)

	form := postFormValues("Hello")
	form.Set("tags", "not json")
	rec := httptest.NewRecorder()
	h.Create(rec, formRequest(t, http.MethodPost, "/api/posts", form))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	posts, _ := ps.List()
	if len(posts[0].Tags) != 0 {
		t.Errorf("tags = %v, want empty for malformed input", posts[0].Tags)
	}
}

func TestPostCreateWithImage(t *testing.T) {
	h, ps, uploadDir := newPostTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, vals := range postFormValues("Illustrated") {
		mw.WriteField(key, vals[0])
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="cover.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("\x89PNG fake image bytes"))
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Create(rec, r)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	posts, _ := ps.List()
	if len(posts) != 1 {
		t.Fatalf("len = %d, want 1", len(posts))
	}
	image := posts[0].Image
	if !strings.HasPrefix(image, "/images/") || !strings.HasSuffix(image, ".png") {
		t.Fatalf("image = %q", image)
	}
	if _, err := os.Stat(filepath.Join(uploadDir, filepath.Base(image))); err != nil {
		t.Errorf("stored image missing: %v", err)
	}
}

func TestPostCreateRejectsNonImage(t *testing.T) {
	h, _, _ := newPostTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, vals := range postFormValues("Tricky") {
		mw.WriteField(key, vals[0])
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="payload.sh"`)
	header.Set("Content-Type", "application/x-sh")
	part, _ := mw.CreatePart(header)
	part.Write([]byte("#!/bin/sh"))
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Create(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeBody(t, rec); body["error"] != "Only image files are allowed!" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestPostUpdateHandler(t *testing.T) {
	h, ps, _ := newPostTestHandler(t)

	created, err := ps.Create(model.Post{
		Title: "Before", Category: "Technology", Author: "Jane Doe", Content: "Body",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	r := formRequest(t, http.MethodPut, "/api/posts/1", postFormValues("After"))
	r.SetPathValue("id", strconv.FormatInt(created.ID, 10))
	rec := httptest.NewRecorder()
	h.Update(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	post, _ := ps.GetByID(created.ID)
	if post.Title != "After" {
		t.Errorf("title = %q, want %q", post.Title, "After")
	}
}

func TestPostUpdateNotFoundHandler(t *testing.T) {
	h, _, _ := newPostTestHandler(t)

	r := formRequest(t, http.MethodPut, "/api/posts/99", postFormValues("Ghost"))
	r.SetPathValue("id", "99")
	rec := httptest.NewRecorder()
	h.Update(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPostDeleteHandler(t *testing.T) {
	h, ps, _ := newPostTestHandler(t)

	created, err := ps.Create(model.Post{
		Title: "Doomed", Category: "Technology", Author: "Jane Doe", Content: "Body",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	r := httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil)
	r.SetPathValue("id", strconv.FormatInt(created.ID, 10))
	rec := httptest.NewRecorder()
	h.Delete(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if post, _ := ps.GetByID(created.ID); post != nil {
		t.Error("post should be gone")
	}
}
