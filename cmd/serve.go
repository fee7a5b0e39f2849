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
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/newsletter-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for enrichment and subscription requests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, e),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// newRouter builds the webhook routes. Enrichment and subscription run
// asynchronously; the handlers accept the request and return immediately
// so callers are not held behind the site pacer.
func newRouter(ctx context.Context, e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			RestaurantID string `json:"restaurant_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RestaurantID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restaurant_id is required"})
			return
		}

		rest, err := e.Store.GetRestaurant(req.Context(), body.RestaurantID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown restaurant"})
			return
		}

		go func() {
			out, err := e.Enricher.Enrich(ctx, rest.ID, rest.WebsiteURL)
			if err != nil {
				zap.L().Error("webhook enrichment failed",
					zap.String("restaurant_id", rest.ID),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook enrichment complete",
				zap.String("restaurant_id", rest.ID),
				zap.Stringp("provider", out.Provider),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":        "accepted",
			"restaurant_id": rest.ID,
		})
	})

	r.Post("/subscribe", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			RestaurantID string `json:"restaurant_id"`
			Email        string `json:"email"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RestaurantID == "" || body.Email == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restaurant_id and email are required"})
			return
		}

		rest, err := e.Store.GetRestaurant(req.Context(), body.RestaurantID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown restaurant"})
			return
		}

		go func() {
			attempt, err := e.Subscribe.Subscribe(ctx, *rest, body.Email)
			if err != nil {
				zap.L().Error("webhook subscription failed",
					zap.String("restaurant_id", rest.ID),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook subscription complete",
				zap.String("restaurant_id", rest.ID),
				zap.String("tier", string(attempt.Tier)),
				zap.Bool("success", attempt.Success),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":        "accepted",
			"restaurant_id": rest.ID,
		})
	})

	r.Get("/restaurants/{id}/attempts", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		attempts, err := e.Store.ListAttempts(req.Context(), id)
		if err != nil {
			zap.L().Error("list attempts failed", zap.String("restaurant_id", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if attempts == nil {
			attempts = []model.SubscriptionAttempt{}
		}
		writeJSON(w, http.StatusOK, attempts)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
