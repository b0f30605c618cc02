package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for lead acquisition",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Post("/leads/acquire", handleAcquire(env))
		r.Get("/users/{userID}/cursors", handleListCursors(env))
		r.Post("/users/{userID}/deliveries/reset", handleResetDeliveries(env))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// acquireRequest is the HTTP shape of one acquisition call.
type acquireRequest struct {
	UserID   string               `json:"user_id"`
	Count    int                  `json:"count"`
	Criteria model.SearchCriteria `json:"criteria"`
}

func handleAcquire(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req acquireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if req.Criteria.Location == "" {
			writeError(w, http.StatusBadRequest, "criteria.location is required")
			return
		}
		if req.Count <= 0 {
			req.Count = 10
		}

		result, err := env.Orchestrator.Acquire(r.Context(), pipeline.AcquireRequest{
			UserID:   req.UserID,
			Criteria: req.Criteria,
			Count:    req.Count,
		})
		if err != nil {
			zap.L().Error("acquire failed",
				zap.String("user_id", req.UserID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "acquisition failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleListCursors(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		cursors, err := env.Store.ListSkipCursors(r.Context(), userID)
		if err != nil {
			zap.L().Error("list cursors failed", zap.String("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list cursors failed")
			return
		}
		if cursors == nil {
			cursors = []model.SkipCursor{}
		}
		writeJSON(w, http.StatusOK, cursors)
	}
}

func handleResetDeliveries(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		n, err := env.Store.ResetDeliveries(r.Context(), userID)
		if err != nil {
			zap.L().Error("reset deliveries failed", zap.String("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "reset failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
