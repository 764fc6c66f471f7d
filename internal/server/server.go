package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/services"
)

// Server is the addon's HTTP surface.
type Server struct {
	discovery     *services.DiscoveryService
	downloader    *services.DownloadService
	publicBaseURL string
}

// NewServer creates a Server. publicBaseURL may be empty, in which case
// download links are derived from each request's forwarded headers.
func NewServer(discovery *services.DiscoveryService, downloader *services.DownloadService, publicBaseURL string) *Server {
	return &Server{
		discovery:     discovery,
		downloader:    downloader,
		publicBaseURL: publicBaseURL,
	}
}

// Handler builds the router. Stremio clients are browsers or embedded
// webviews, so every route must answer cross-origin requests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Range"},
	}).Handler)

	r.Get("/manifest.json", s.handleManifest)
	r.Get("/subtitles/{type}/{id}", s.handleSubtitles)
	// Stremio appends extra properties as an additional path segment
	// (e.g. /subtitles/series/tt123:1:5/videoHash=abc.json).
	r.Get("/subtitles/{type}/{id}/{extra}", s.handleSubtitles)
	r.Get("/subtitles/download.{format}", s.handleDownload)

	return r
}

// NewHTTPServer wraps the router in an http.Server bound to the configured address.
func NewHTTPServer(s *Server, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler: s.Handler(),
	}
}

// baseURL resolves the externally visible base URL for download links.
func (s *Server) baseURL(r *http.Request) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return proto + "://" + host
}
