package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/techpulse/techpulse/internal/email"
	"github.com/techpulse/techpulse/internal/handler"
	"github.com/techpulse/techpulse/internal/middleware"
	"github.com/techpulse/techpulse/internal/store"
	ws "github.com/techpulse/techpulse/internal/websocket"
)

// Config carries the server-level settings read from the environment in main.
type Config struct {
	UploadDir   string
	ExposeCodes bool
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authH       *handler.AuthHandler
	userH       *handler.UserHandler
	postH       *handler.PostHandler
	commentH    *handler.CommentHandler
	adminH      *handler.AdminHandler
	systemH     *handler.SystemHandler
	adminStore  *store.AdminStore
	userStore   *store.UserStore
	sessions    *store.SessionStore
	rateLimiter *middleware.RateLimiter
	uploadDir   string
	logger      *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	adminStore := store.NewAdminStore(db)
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)
	verificationStore := store.NewVerificationStore(db)
	sessionStore := store.NewSessionStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		authH:       handler.NewAuthHandler(adminStore, sessionStore, logger.With("component", "auth")),
		userH:       handler.NewUserHandler(userStore, sessionStore, verificationStore, emailClient, cfg.ExposeCodes, logger.With("component", "user")),
		postH:       handler.NewPostHandler(postStore, hub, cfg.UploadDir, logger.With("component", "post")),
		commentH:    handler.NewCommentHandler(commentStore, postStore, hub, logger.With("component", "comment")),
		adminH:      handler.NewAdminHandler(userStore, sessionStore, logger.With("component", "admin")),
		systemH:     handler.NewSystemHandler(emailClient, logger.With("component", "system")),
		adminStore:  adminStore,
		userStore:   userStore,
		sessions:    sessionStore,
		rateLimiter: middleware.NewRateLimiter(),
		uploadDir:   cfg.UploadDir,
		logger:      logger,
	}
}

// SessionStore returns the session store for the maintenance sweep.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessions
}

// VerificationStore returns the verification store for the maintenance sweep.
func (s *Server) VerificationStore() *store.VerificationStore {
	return store.NewVerificationStore(s.db)
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// System
	mux.HandleFunc("GET /api/health", s.systemH.Health)
	mux.HandleFunc("GET /api/email-status", s.systemH.EmailStatus)
	mux.HandleFunc("POST /api/test-email", s.systemH.TestEmail)

	// Admin auth
	mux.HandleFunc("POST /api/auth/login", s.rateLimited(s.authH.Login))
	mux.Handle("POST /api/auth/logout", middleware.RequireAdmin(http.HandlerFunc(s.authH.Logout)))
	mux.HandleFunc("GET /api/auth/status", s.authH.Status)

	// User auth + verification
	mux.HandleFunc("POST /api/user/register", s.rateLimited(s.userH.Register))
	mux.HandleFunc("POST /api/user/login", s.rateLimited(s.userH.Login))
	mux.HandleFunc("POST /api/user/verify-email", s.rateLimited(s.userH.VerifyEmail))
	mux.HandleFunc("POST /api/user/resend-verification", s.rateLimited(s.userH.ResendVerification))
	mux.Handle("POST /api/user/logout", middleware.RequireUser(http.HandlerFunc(s.userH.Logout)))
	mux.HandleFunc("GET /api/user/status", s.userH.Status)

	// Posts: public reads, admin-gated writes
	mux.HandleFunc("GET /api/posts", s.postH.List)
	mux.HandleFunc("GET /api/posts/{id}", s.postH.Get)
	mux.Handle("POST /api/posts", middleware.RequireAdmin(http.HandlerFunc(s.postH.Create)))
	mux.Handle("PUT /api/posts/{id}", middleware.RequireAdmin(http.HandlerFunc(s.postH.Update)))
	mux.Handle("DELETE /api/posts/{id}", middleware.RequireAdmin(http.HandlerFunc(s.postH.Delete)))

	// Comments: public reads; writes gated inside the handler (user, or
	// admin for delete-any)
	mux.HandleFunc("GET /api/posts/{id}/comments", s.commentH.List)
	mux.Handle("POST /api/posts/{id}/comments", middleware.RequireUser(http.HandlerFunc(s.commentH.Create)))
	mux.HandleFunc("DELETE /api/comments/{id}", s.commentH.Delete)

	// Admin user management
	mux.Handle("GET /api/admin/users", middleware.RequireAdmin(http.HandlerFunc(s.adminH.ListUsers)))
	mux.Handle("DELETE /api/admin/users/{id}", middleware.RequireAdmin(http.HandlerFunc(s.adminH.DeleteUser)))
	mux.Handle("PUT /api/admin/users/{id}/status", middleware.RequireAdmin(http.HandlerFunc(s.adminH.UpdateUserStatus)))
	mux.Handle("POST /api/admin/cleanup-sessions", middleware.RequireAdmin(http.HandlerFunc(s.adminH.CleanupSessions)))

	// Uploaded post images
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.uploadDir))))

	// Live content-change feed
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))

	sessionMiddleware := middleware.WithSession(s.sessions, s.adminStore, s.userStore)
	return middleware.RequestLogger(s.logger.With("component", "http"))(sessionMiddleware(mux))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
