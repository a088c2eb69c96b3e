package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/satchel/internal/ops"
)

// NewServer creates and configures the HTTP server for the artifact API.
func NewServer(env *ops.Env, auth Authenticator, bind string, port int) *http.Server {
	h := &Handlers{env: env, auth: auth}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("POST /v1/sessions", h.HandleCreateSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("POST /v1/sessions/{sid}/artifacts/repository", h.HandleAddRepository)
	mux.HandleFunc("POST /v1/sessions/{sid}/artifacts/upload", h.HandleUpload)
	mux.HandleFunc("GET /v1/sessions/{sid}/artifacts", h.HandleListArtifacts)
	mux.HandleFunc("GET /v1/artifacts/{id}", h.HandleGetArtifact)
	mux.HandleFunc("PATCH /v1/artifacts/{id}", h.HandleUpdateArtifact)
	mux.HandleFunc("DELETE /v1/artifacts/{id}", h.HandleDeleteArtifact)
	mux.HandleFunc("GET /v1/artifacts/{id}/files", h.HandleListFiles)
	mux.HandleFunc("GET /v1/artifacts/{id}/files/{path...}", h.HandleReadFile)
	mux.HandleFunc("GET /v1/artifacts/{id}/download", h.HandleDownload)
	mux.HandleFunc("GET /v1/artifacts/{id}/preview", h.HandlePreview)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: securityHeaders(mux),
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(env *ops.Env, srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	env.Logger.Info("satchel API listening", "addr", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		env.Logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		env.Logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
