package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
)

const searchPath = "/szukaj.php"

// searchURL builds the search page URL for a query. pSortuj=pobrn makes the
// site sort by download count server-side.
func (c *client) searchURL(query string, variant models.TitleVariant) string {
	params := url.Values{}
	params.Set("szukane", query)
	params.Set("pTitle", string(variant))
	params.Set("pSortuj", "pobrn")
	return c.baseURL + searchPath + "?" + params.Encode()
}

// Search implements the Client interface.
func (c *client) Search(ctx context.Context, query string, variant models.TitleVariant) ([]models.SubtitleCandidate, error) {
	logger := config.GetLogger()

	cacheKey := "search:" + string(variant) + ":" + query
	if c.store != nil {
		if raw, ok := c.store.Get(cacheKey); ok {
			var cached []models.SubtitleCandidate
			if err := json.Unmarshal(raw, &cached); err == nil {
				logger.Debug().Str("query", query).Msg("Search cache hit")
				return cached, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, variant), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	siteHeaders(req)

	logger.Debug().Str("query", query).Str("variant", string(variant)).Msg("Searching subtitles")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	candidates, err := c.searchParser.ParseHtml(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	logger.Debug().Str("query", query).Int("count", len(candidates)).Msg("Search completed")

	if c.store != nil {
		if raw, err := json.Marshal(candidates); err == nil {
			c.store.Set(cacheKey, raw, c.searchTTL)
		}
	}
	return candidates, nil
}
