package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/techpulse/techpulse/internal/database"
	"github.com/techpulse/techpulse/internal/email"
	"github.com/techpulse/techpulse/internal/handler"
	"github.com/techpulse/techpulse/internal/logging"
	"github.com/techpulse/techpulse/internal/server"
	"github.com/techpulse/techpulse/internal/store"
)

const maintenanceInterval = 10 * time.Minute

func main() {
	logger := logging.Setup(os.Getenv("TECHPULSE_LOG_LEVEL"))

	port := os.Getenv("TECHPULSE_PORT")
	if port == "" {
		port = "3000"
	}

	dbPath := os.Getenv("TECHPULSE_DB_PATH")
	if dbPath == "" {
		dbPath = "blog.db"
	}

	uploadDir := os.Getenv("TECHPULSE_UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "public/images"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seedAdmin(db); err != nil {
		logger.Error("seed admin", "error", err)
		os.Exit(1)
	}

	var emailClient *email.Client
	if token := os.Getenv("POSTMARK_SERVER_TOKEN"); token != "" {
		from := os.Getenv("TECHPULSE_FROM_EMAIL")
		emailClient = email.NewClient(token, from)
		logger.Info("email dispatch configured", "from", from)
	} else {
		logger.Warn("email dispatch not configured, verification codes will be logged")
	}

	srv := server.New(db, emailClient, server.Config{
		UploadDir:   uploadDir,
		ExposeCodes: os.Getenv("TECHPULSE_EXPOSE_CODES") == "true",
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopMaintenance := make(chan struct{})
	go runMaintenance(srv, logger.With("component", "maintenance"), stopMaintenance)

	go func() {
		fmt.Printf("TechPulse running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(stopMaintenance)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the bootstrap admin account on first run. The account is
// immutable afterwards; rerunning with different env values does not touch
// an existing admin.
func seedAdmin(db *sql.DB) error {
	username := os.Getenv("TECHPULSE_ADMIN_USERNAME")
	password := os.Getenv("TECHPULSE_ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	admins := store.NewAdminStore(db)
	existing, err := admins.GetByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = admins.Create(username, string(hash))
	return err
}

// runMaintenance periodically purges expired sessions and verification
// codes, sweeps idle sessions (recomputing is_online), and trims the rate
// limiter.
func runMaintenance(srv *server.Server, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("delete expired sessions", "error", err)
			} else if n > 0 {
				logger.Debug("deleted expired sessions", "count", n)
			}
			if n, err := srv.SessionStore().SweepIdle(handler.IdleTimeout); err != nil {
				logger.Error("sweep idle sessions", "error", err)
			} else if n > 0 {
				logger.Debug("swept idle sessions", "count", n)
			}
			if n, err := srv.VerificationStore().DeleteExpired(); err != nil {
				logger.Error("delete expired verifications", "error", err)
			} else if n > 0 {
				logger.Debug("deleted expired verifications", "count", n)
			}
			srv.RateLimiter().Cleanup()
		case <-stop:
			return
		}
	}
}
