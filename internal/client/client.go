package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Belphemur/AnimeSub/internal/cache"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
	"github.com/Belphemur/AnimeSub/internal/parser"
)

// Client defines the interface for querying the animesub.info website
type Client interface {
	// Search runs one search query against the site and returns the parsed
	// candidates, most downloaded first (the site sorts server-side).
	Search(ctx context.Context, query string, variant models.TitleVariant) ([]models.SubtitleCandidate, error)

	// DownloadRaw fetches the raw subtitle payload for a candidate. The
	// payload may be a zip archive; callers run it through the extraction
	// and normalization pipeline.
	DownloadRaw(ctx context.Context, req *models.DownloadRequest) ([]byte, error)

	// HTTPClient exposes the underlying HTTP client so other components
	// (metadata lookups) can share its transport, proxy and timeout settings.
	HTTPClient() *http.Client

	// Close releases any resources held by the client (e.g., cache connections).
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient   *http.Client
	baseURL      string
	searchParser *parser.SearchParser
	store        cache.Cache
	searchTTL    time.Duration
}

// NewClient creates a new client instance with proxy configuration if provided.
// store may be nil to disable search result caching.
func NewClient(cfg *config.Config, store cache.Cache) Client {
	logger := config.GetLogger()

	// Parse timeout duration
	timeout := 15 * time.Second // default
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 15s")
		} else {
			timeout = parsedTimeout
		}
	}

	searchTTL := 30 * time.Minute
	if cfg.Cache.SearchTTL != "" {
		if parsed, err := time.ParseDuration(cfg.Cache.SearchTTL); err == nil {
			searchTTL = parsed
		}
	}

	// Set up base transport with optional proxy
	// Clone DefaultTransport to preserve all its settings (timeouts, connection pooling, HTTP/2, etc.)
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			// Log error but continue without proxy
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			// Override only the Proxy field
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	// Wrap transport with compression support (gzip, brotli, zstd)
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newCompressionTransport(baseTransport),
	}

	return &client{
		httpClient:   httpClient,
		baseURL:      cfg.AnimeSubDomain,
		searchParser: parser.NewSearchParser(),
		store:        store,
		searchTTL:    searchTTL,
	}
}

func (c *client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close releases any resources held by the client, such as cache connections.
func (c *client) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// siteHeaders applies the browser-like headers the site expects on every request.
func siteHeaders(req *http.Request) {
	req.Header.Set("User-Agent", config.GetUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pl,en;q=0.9")
	req.Header.Set("Accept-Charset", "ISO-8859-2,utf-8;q=0.7,*;q=0.3")
}
