package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/techpulse/techpulse/internal/auth"
	"github.com/techpulse/techpulse/internal/email"
	"github.com/techpulse/techpulse/internal/store"
)

// UserHandler serves end-user registration, email verification, and the
// user login/logout/status flows.
type UserHandler struct {
	users         *store.UserStore
	sessions      *store.SessionStore
	verifications *store.VerificationStore
	emailClient   *email.Client
	exposeCodes   bool
	logger        *slog.Logger
}

func NewUserHandler(
	us *store.UserStore,
	ss *store.SessionStore,
	vs *store.VerificationStore,
	ec *email.Client,
	exposeCodes bool,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		users:         us,
		sessions:      ss,
		verifications: vs,
		emailClient:   ec,
		exposeCodes:   exposeCodes,
		logger:        logger,
	}
}

// dispatchCode attempts delivery of a verification code and reports whether
// the email went out. Dispatch failure is never fatal: the account and code
// are already committed, and the code is always logged so operators can
// complete verification without working email infrastructure.
func (h *UserHandler) dispatchCode(toEmail, code string) bool {
	if h.emailClient == nil || !h.emailClient.Configured() {
		h.logger.Info("email not configured, verification code not sent",
			"email", toEmail, "code", code)
		return false
	}
	if err := h.emailClient.SendVerificationCode(toEmail, code); err != nil {
		h.logger.Error("send verification code", "email", toEmail, "error", err)
		h.logger.Info("verification code fallback", "email", toEmail, "code", code)
		return false
	}
	return true
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Email, password, and name are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user, err := h.users.Create(req.Email, string(hash), req.Name)
	if err == store.ErrDuplicateEmail {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	verification, err := h.verifications.Issue(user.Email)
	if err != nil {
		h.logger.Error("issue verification code", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	sent := h.dispatchCode(user.Email, verification.Code)

	resp := map[string]any{
		"message": "Registration successful. Please check your email for verification code.",
		"user": map[string]any{
			"id":       user.ID,
			"email":    user.Email,
			"name":     user.Name,
			"verified": false,
		},
		"emailSent": sent,
	}
	if !sent {
		resp["message"] = "Registration successful. Check the server logs for your verification code."
		if h.exposeCodes {
			resp["verificationCode"] = verification.Code
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	// Verified check runs before the password comparison: unverified accounts
	// always get the actionable 403, never the generic 401.
	if !user.IsVerified {
		writeError(w, http.StatusForbidden, "Please verify your email before logging in")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.users.RecordLogin(user.ID); err != nil {
		h.logger.Error("record login", "error", err)
	}

	sess, err := h.sessions.CreateUser(user.ID)
	if err != nil {
		h.logger.Error("create user session", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	setSessionCookie(w, sess.Token)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    map[string]any{"id": user.ID, "email": user.Email, "name": user.Name},
	})
}

func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Email and verification code are required")
		return
	}

	ok, err := h.verifications.Consume(req.Email, req.Code)
	if err != nil {
		h.logger.Error("consume verification code", "error", err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid or expired verification code")
		return
	}

	if err := h.users.MarkVerified(req.Email); err != nil {
		h.logger.Error("mark verified", "error", err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	// Verification doubles as login: establish a session for the freshly
	// verified account.
	user, err := h.users.GetByEmail(req.Email)
	if err == nil && user != nil {
		if err := h.users.RecordLogin(user.ID); err != nil {
			h.logger.Error("record login", "error", err)
		}
		if sess, err := h.sessions.CreateUser(user.ID); err == nil {
			setSessionCookie(w, sess.Token)
		} else {
			h.logger.Error("create session after verification", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to resend verification code")
		return
	}
	if user == nil || user.IsVerified {
		writeError(w, http.StatusBadRequest, "User not found or already verified")
		return
	}

	verification, err := h.verifications.Issue(user.Email)
	if err != nil {
		h.logger.Error("issue verification code", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to resend verification code")
		return
	}

	sent := h.dispatchCode(user.Email, verification.Code)

	resp := map[string]any{
		"message":   "Verification code sent successfully",
		"emailSent": sent,
	}
	if !sent {
		resp["message"] = "Verification code generated. Check the server logs."
		if h.exposeCodes {
			resp["verificationCode"] = verification.Code
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		if err := h.users.SetOnline(u.UserID, false); err != nil {
			h.logger.Error("set offline", "error", err)
		}
		if err := h.sessions.Delete(u.SessionID); err != nil {
			h.logger.Error("delete user session", "error", err)
			writeError(w, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          map[string]any{"id": u.UserID, "email": u.Email, "name": u.Name},
	})
}
