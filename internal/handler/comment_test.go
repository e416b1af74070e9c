package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/techpulse/techpulse/internal/auth"
	"github.com/techpulse/techpulse/internal/model"
	"github.com/techpulse/techpulse/internal/store"
	"github.com/techpulse/techpulse/internal/websocket"
)

type commentTestEnv struct {
	handler  *CommentHandler
	comments *store.CommentStore
	post     *model.Post
	user     *model.User
}

func newCommentTestEnv(t *testing.T) *commentTestEnv {
	t.Helper()
	db := testDB(t)
	ps := store.NewPostStore(db)
	cs := store.NewCommentStore(db)

	u, err := store.NewUserStore(db).Create("alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	post, err := ps.Create(model.Post{
		Title: "Commented", Category: "Technology", Author: "Jane Doe", Content: "Body",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	return &commentTestEnv{
		handler:  NewCommentHandler(cs, ps, websocket.NewHub(testLogger()), testLogger()),
		comments: cs,
		post:     post,
		user:     u,
	}
}

func (e *commentTestEnv) userPrincipal() auth.UserPrincipal {
	return auth.UserPrincipal{UserID: e.user.ID, Email: e.user.Email, Name: e.user.Name}
}

func (e *commentTestEnv) createRequest(t *testing.T, postID int64, content string, p auth.Principal) *http.Request {
	t.Helper()
	r := jsonRequest(t, http.MethodPost, "/api/posts/1/comments", map[string]string{"content": content})
	r.SetPathValue("id", strconv.FormatInt(postID, 10))
	if p != nil {
		r = r.WithContext(auth.WithPrincipal(r.Context(), p))
	}
	return r
}

func TestCommentCreateHandler(t *testing.T) {
	e := newCommentTestEnv(t)

	rec := httptest.NewRecorder()
	e.handler.Create(rec, e.createRequest(t, e.post.ID, "Nice write-up", e.userPrincipal()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	comments, err := e.comments.ListByPost(e.post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("len = %d, want 1", len(comments))
	}
	if comments[0].UserName != "Alice" || comments[0].Content != "Nice write-up" {
		t.Errorf("comment = %+v", comments[0])
	}
}

func TestCommentCreateAnonymous(t *testing.T) {
	e := newCommentTestEnv(t)

	rec := httptest.NewRecorder()
	e.handler.Create(rec, e.createRequest(t, e.post.ID, "Drive-by", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCommentCreatePostNotFound(t *testing.T) {
	e := newCommentTestEnv(t)

	rec := httptest.NewRecorder()
	e.handler.Create(rec, e.createRequest(t, 999, "Into the void", e.userPrincipal()))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := decodeBody(t, rec); body["error"] != "Post not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCommentCreateEmptyContent(t *testing.T) {
	e := newCommentTestEnv(t)

	rec := httptest.NewRecorder()
	e.handler.Create(rec, e.createRequest(t, e.post.ID, "   ", e.userPrincipal()))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body := decodeBody(t, rec); body["error"] != "Comment content is required" {
		t.Errorf("error = %v", body["error"])
	}
}

func (e *commentTestEnv) deleteRequest(t *testing.T, id int64, p auth.Principal) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodDelete, "/api/comments/1", nil)
	r.SetPathValue("id", strconv.FormatInt(id, 10))
	if p != nil {
		r = r.WithContext(auth.WithPrincipal(r.Context(), p))
	}
	return r
}

func TestCommentDeleteOwnedHandler(t *testing.T) {
	e := newCommentTestEnv(t)
	c, _ := e.comments.Create(e.post.ID, e.user.ID, e.user.Name, "Mine")

	rec := httptest.NewRecorder()
	e.handler.Delete(rec, e.deleteRequest(t, c.ID, e.userPrincipal()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if remaining, _ := e.comments.ListByPost(e.post.ID); len(remaining) != 0 {
		t.Error("comment should be gone")
	}
}

func TestCommentDeleteNotOwned(t *testing.T) {
	e := newCommentTestEnv(t)
	c, _ := e.comments.Create(e.post.ID, e.user.ID, e.user.Name, "Mine")

	stranger := auth.UserPrincipal{UserID: e.user.ID + 1, Email: "bob@example.com", Name: "Bob"}
	rec := httptest.NewRecorder()
	e.handler.Delete(rec, e.deleteRequest(t, c.ID, stranger))

	// Same 404 as a missing comment, so ownership is not probeable.
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := decodeBody(t, rec); body["error"] != "Comment not found or access denied" {
		t.Errorf("error = %v", body["error"])
	}
	if remaining, _ := e.comments.ListByPost(e.post.ID); len(remaining) != 1 {
		t.Error("comment should survive a stranger's delete")
	}
}

func TestCommentDeleteAsAdmin(t *testing.T) {
	e := newCommentTestEnv(t)
	c, _ := e.comments.Create(e.post.ID, e.user.ID, e.user.Name, "Anything")

	admin := auth.AdminPrincipal{AdminID: 1, Username: "editor"}
	rec := httptest.NewRecorder()
	e.handler.Delete(rec, e.deleteRequest(t, c.ID, admin))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if remaining, _ := e.comments.ListByPost(e.post.ID); len(remaining) != 0 {
		t.Error("admin delete should remove any comment")
	}
}

func TestCommentDeleteAnonymous(t *testing.T) {
	e := newCommentTestEnv(t)
	c, _ := e.comments.Create(e.post.ID, e.user.ID, e.user.Name, "Keep")

	rec := httptest.NewRecorder()
	e.handler.Delete(rec, e.deleteRequest(t, c.ID, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCommentListHandler(t *testing.T) {
	e := newCommentTestEnv(t)
	e.comments.Create(e.post.ID, e.user.ID, e.user.Name, "First")

	r := httptest.NewRequest(http.MethodGet, "/api/posts/1/comments", nil)
	r.SetPathValue("id", strconv.FormatInt(e.post.ID, 10))
	rec := httptest.NewRecorder()
	e.handler.List(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	comments, ok := body["comments"].([]any)
	if !ok {
		t.Fatalf("comments = %v, want JSON array", body["comments"])
	}
	if len(comments) != 1 {
		t.Errorf("len = %d, want 1", len(comments))
	}
}
