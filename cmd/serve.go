package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/health-engine/internal/config"
	"github.com/sells-group/health-engine/internal/rollup"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		r := buildRouter(e, cfg.Server)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the read-only scoring API.
func buildRouter(e *env, srv config.ServerConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))
	r.Use(rateLimit(rate.Limit(srv.RatePerSecond), srv.RateBurst))

	r.Get("/health", handleHealthz)
	r.Get("/accounts/{accountID}/score", handleAccountScore(e))
	r.Get("/accounts/{accountID}/trend", handleAccountTrend(e))
	r.Get("/rollup", handleRollup(e))
	r.Get("/catalog", handleCatalog(e))

	return r
}

// rateLimit applies a global token-bucket limit to the API.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleAccountScore(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID := chi.URLParam(r, "accountID")

		account, err := e.Store.GetAccount(ctx, accountID)
		if err != nil {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		measurements, err := e.Store.ListMeasurements(ctx, accountID)
		if err != nil {
			zap.L().Error("list measurements", zap.String("account_id", accountID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		vertical := e.vertical(account, r.URL.Query().Get("vertical"))

		writeJSON(w, http.StatusOK, e.Engine.ScoreAccount(accountID, vertical, measurements))
	}
}

func handleAccountTrend(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		snapshots, err := e.Store.ListTrendSnapshots(r.Context(), accountID, limit)
		if err != nil {
			zap.L().Error("list trend snapshots", zap.String("account_id", accountID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, snapshots)
	}
}

func handleRollup(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weighted := r.URL.Query().Get("weighted") == "true"

		inputs, err := scoreAllAccounts(r.Context(), e)
		if err != nil {
			zap.L().Error("score accounts for rollup", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, rollup.Rollup(inputs, rollup.Options{SizeWeighted: weighted}))
	}
}

func handleCatalog(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, e.Engine.Table().Catalog())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
