package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
	"github.com/Belphemur/AnimeSub/internal/subtitle"
)

// manifest describes this addon to Stremio clients.
var manifest = models.Manifest{
	ID:          "community.animesub.info",
	Version:     "1.0.0",
	Name:        "AnimeSub.info Subtitles",
	Description: "Polskie napisy do anime z animesub.info",
	Resources:   []string{"subtitles"},
	Types:       []string{"movie", "series"},
	IDPrefixes:  []string{"tt", "kitsu"},
	Catalogs:    []models.CatalogItem{},
	BehaviorHints: models.BehaviorHints{
		Configurable:          false,
		ConfigurationRequired: false,
	},
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, manifest)
}

// handleSubtitles serves discovery requests. The response is always HTTP 200;
// failures degrade to an empty subtitles list.
func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "type")
	contentID := strings.TrimSuffix(chi.URLParam(r, "id"), ".json")

	if contentType != "movie" && contentType != "series" {
		writeJSON(w, models.SubtitlesResponse{Subtitles: []models.WireSubtitle{}})
		return
	}

	matched := s.discovery.Discover(r.Context(), contentType, contentID)

	wire := make([]models.WireSubtitle, 0, len(matched))
	base := s.baseURL(r)
	for _, m := range matched {
		format := subtitle.DetectFormat(m.FormatHint, m.Description)
		wire = append(wire, models.WireSubtitle{
			ID:   "animesub-" + m.ID,
			URL:  s.downloadURL(base, &m, format),
			Lang: "pol",
			Name: displayName(&m, format),
		})
	}

	writeJSON(w, models.SubtitlesResponse{Subtitles: wire})
}

// handleDownload serves the proxied subtitle payload.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &models.DownloadRequest{
		ID:         q.Get("id"),
		Hash:       q.Get("hash"),
		Query:      q.Get("query"),
		Variant:    models.TitleVariant(q.Get("type")),
		FormatHint: strings.ToLower(q.Get("format")),
		ConvertVTT: q.Get("convert") == "vtt",
	}

	if req.ID == "" || req.Hash == "" {
		http.Error(w, "Missing parameters", http.StatusBadRequest)
		return
	}

	out, err := s.downloader.Download(r.Context(), req)
	if err != nil {
		http.Error(w, fmt.Sprintf("Subtitle download failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", out.MimeType)
	w.Header().Set("Content-Disposition", `inline; filename="subtitle`+out.Extension+`"`)
	_, _ = w.Write(out.Bytes)
}

// downloadURL builds the proxied download link for a candidate. The format
// lands in the path extension because some players sniff it from the URL.
func (s *Server) downloadURL(base string, m *models.MatchedCandidate, format string) string {
	params := url.Values{}
	params.Set("id", m.ID)
	params.Set("hash", m.Hash)
	params.Set("query", m.Query)
	params.Set("type", string(m.Variant))
	params.Set("format", format)
	return fmt.Sprintf("%s/subtitles/download.%s?%s", base, format, params.Encode())
}

// displayName renders the label shown in the player's subtitle picker.
func displayName(m *models.MatchedCandidate, format string) string {
	title := m.TitleEng
	if title == "" {
		title = m.TitleOrg
	}

	parts := []string{title}
	if m.Author != "" {
		parts = append(parts, "by "+m.Author)
	}
	parts = append(parts, "["+strings.ToUpper(format)+"]")
	if m.DownloadCount > 0 {
		parts = append(parts, fmt.Sprintf("%d pobrań", m.DownloadCount))
	}
	return strings.Join(parts, " | ")
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := config.GetLogger()
		logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
