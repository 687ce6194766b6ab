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

	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/pipeline"
	"github.com/basketwise/compare-cli/internal/selection"
	"github.com/basketwise/compare-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for comparison requests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		if err := cfg.Validate("compare"); err != nil {
			return err
		}

		registry, err := model.LoadPlatformRegistry()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runner := pipeline.NewRunner(st, newExtractor(), registry,
			pipeline.WithCallTimeout(time.Duration(cfg.Extract.CallTimeoutSecs)*time.Second),
			pipeline.WithRetry(retryConfig()),
			pipeline.WithConcurrency(cfg.Run.MaxConcurrentPlatforms),
		)

		api := &apiServer{baseCtx: ctx, store: st, registry: registry, runner: runner, owner: cfg.Owner}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer exposes the grocery list, platform registry, and comparison
// pipeline over HTTP.
type apiServer struct {
	baseCtx  context.Context
	store    store.Store
	registry *model.PlatformRegistry
	runner   *pipeline.Runner
	owner    string
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/platforms", s.handleListPlatforms)
		r.Get("/items", s.handleListItems)
		r.Post("/items", s.handleAddItem)
		r.Delete("/items/{id}", s.handleDeleteItem)
		r.Post("/compare", s.handleCompare)
		r.Get("/results", s.handleResults)
	})

	return r
}

func (s *apiServer) handleListPlatforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Platforms)
}

func (s *apiServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context(), s.owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list items failed")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *apiServer) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.store.AddItem(r.Context(), s.owner, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "item name must not be empty")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *apiServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteItem(r.Context(), s.owner, chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pincode   string   `json:"pincode"`
		Platforms []string `json:"platforms"`
		Items     []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := selection.Validate(req.Pincode, req.Platforms, s.registry); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := req.Items
	if len(items) == 0 {
		list, err := s.store.ListItems(r.Context(), s.owner)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load grocery list failed")
			return
		}
		for _, item := range list {
			items = append(items, item.Name)
		}
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, model.ErrNoItems.Error())
		return
	}

	sel := &model.SelectionRequest{
		Owner:       s.owner,
		Pincode:     req.Pincode,
		PlatformIDs: req.Platforms,
	}

	// Run the comparison asynchronously; the caller polls /api/results. The
	// run outlives the request, so it binds to the server context.
	go func() {
		summary, err := s.runner.Run(s.baseCtx, sel, items)
		if err != nil {
			zap.L().Error("api comparison run failed",
				zap.String("pincode", sel.Pincode),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("api comparison run complete",
			zap.String("selection", summary.SelectionID),
			zap.Int("records", summary.Records()),
			zap.Bool("partial_failure", summary.Failed()),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "accepted",
		"pincode":   req.Pincode,
		"platforms": req.Platforms,
		"items":     len(items),
	})
}

func (s *apiServer) handleResults(w http.ResponseWriter, r *http.Request) {
	groups, err := pipeline.Rank(r.Context(), s.store, s.owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rank results failed")
		return
	}
	if groups == nil {
		groups = []model.ComparisonGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
