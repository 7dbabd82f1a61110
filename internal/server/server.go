// Package server exposes stored scrape results and metrics over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/romstore"
	"github.com/ryanm101/romscraper/internal/scraper"
)

// Server handles HTTP requests.
type Server struct {
	store     *romstore.Store
	platforms *platform.Resolver
	logger    *slog.Logger
	router    chi.Router
}

// New creates the HTTP handler.
func New(store *romstore.Store, platforms *platform.Resolver, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		platforms: platforms,
		logger:    logging.OrDefault(logger),
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the handler with the usual timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/platforms", s.handlePlatforms)
		r.Get("/platforms/{name}", s.handlePlatform)
		r.Get("/roms", s.handleRoms)
		r.Get("/gamelist/{platform}", s.handleGamelist)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RefreshMetrics(r.Context()); err != nil {
		s.logger.Warn("failed to refresh store metrics", "error", err)
	}
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Platforms(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	var roms, scraped int
	for _, c := range counts {
		roms += c.Roms
		scraped += c.Scraped
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"totalPlatforms": len(counts),
		"totalRoms":      roms,
		"scrapedRoms":    scraped,
	})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Platforms(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"known":  s.platforms.Names(),
		"stored": counts,
	})
}

func (s *Server) handlePlatform(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	canonical, ok := s.platforms.Canonical(name)
	if !ok {
		http.Error(w, "unknown platform", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      name,
		"canonical": canonical,
		"codes":     s.platforms.Codes(name),
	})
}

type romView struct {
	ID             string               `json:"id"`
	Path           string               `json:"path"`
	Platform       string               `json:"platform"`
	Metadata       scraper.GameMetadata `json:"metadata"`
	MetadataSource string               `json:"metadataSource,omitempty"`
	Assets         map[string]string    `json:"assets,omitempty"`
}

func newRomView(rec *scraper.Record) romView {
	v := romView{
		ID:             rec.ID,
		Path:           rec.Path,
		Platform:       rec.Platform,
		Metadata:       rec.Metadata,
		MetadataSource: rec.MetadataSource,
	}
	if len(rec.Assets) > 0 {
		v.Assets = make(map[string]string, len(rec.Assets))
		for k, p := range rec.Assets {
			v.Assets[k.String()] = p
		}
	}
	return v
}

func (s *Server) handleRoms(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context(), r.URL.Query().Get("platform"))
	if err != nil {
		s.fail(w, err)
		return
	}
	roms := make([]romView, 0, len(recs))
	for _, rec := range recs {
		roms = append(roms, newRomView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"roms": roms})
}

func (s *Server) handleGamelist(w http.ResponseWriter, r *http.Request) {
	opts := romstore.GamelistOptions{
		ScrapedOnly: r.URL.Query().Get("scraped") == "true",
		PathPrefix:  r.URL.Query().Get("prefix"),
	}
	data, err := s.store.ExportGamelist(r.Context(), chi.URLParam(r, "platform"), opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(data)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, romstore.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Error("request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
