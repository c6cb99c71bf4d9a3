package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/dqgrid/internal/ctxlog"
)

// statusRouter serves liveness and live progress of the current run.
func (a *App) statusRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", a.healthHandler)
	r.Get("/progress", a.progressHandler)
	return r
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) progressHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.progress.Snapshot()); err != nil {
		a.logger.Debug("Failed to write progress response.", "error", err)
	}
}

// startStatusServer runs the status HTTP server in the background.
func (a *App) startStatusServer(ctx context.Context, port int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring status server.")

	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{Addr: addr, Handler: a.statusRouter()}

	go func() {
		logger.Info("Status server starting.", "address", fmt.Sprintf("http://localhost%s/progress", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed unexpectedly.", "error", err)
		}
	}()
}

func (a *App) closeStatusServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Status server was not running.")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down status server.")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Status server shutdown failed.", "error", err)
		return
	}
	a.httpServer = nil
	logger.Debug("Status server shut down gracefully.")
}
