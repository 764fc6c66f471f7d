package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/Belphemur/AnimeSub/internal/apperrors"
	"github.com/Belphemur/AnimeSub/internal/cache"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
)

const (
	// DefaultCinemetaURL is the public Cinemeta metadata endpoint.
	DefaultCinemetaURL = "https://v3-cinemeta.strem.io"
	// DefaultKitsuURL is the public Kitsu API endpoint.
	DefaultKitsuURL = "https://kitsu.io/api/edge"
)

// Resolver turns Stremio content ids into searchable titles.
//
// Two id families are supported: IMDb ids ("tt123:1:5" for series, "tt123"
// for movies) resolved through Cinemeta, and Kitsu ids ("kitsu:456:5")
// resolved through the Kitsu API. Results are cached.
type Resolver struct {
	httpClient  *http.Client
	store       cache.Cache
	cacheTTL    time.Duration
	cinemetaURL string
	kitsuURL    string
	retry       retrypolicy.RetryPolicy[*models.TitleInfo]
}

// NewResolver creates a Resolver. store may be nil to disable caching;
// empty endpoint URLs fall back to the public services.
func NewResolver(httpClient *http.Client, store cache.Cache, cacheTTL time.Duration, cinemetaURL, kitsuURL string) *Resolver {
	if cinemetaURL == "" {
		cinemetaURL = DefaultCinemetaURL
	}
	if kitsuURL == "" {
		kitsuURL = DefaultKitsuURL
	}
	return &Resolver{
		httpClient:  httpClient,
		store:       store,
		cacheTTL:    cacheTTL,
		cinemetaURL: strings.TrimSuffix(cinemetaURL, "/"),
		kitsuURL:    strings.TrimSuffix(kitsuURL, "/"),
		retry: retrypolicy.NewBuilder[*models.TitleInfo]().
			WithMaxRetries(1).
			WithDelay(200 * time.Millisecond).
			Build(),
	}
}

// Resolve looks up the title behind a content id. A lookup that fails or
// yields no title returns ErrMetadataUnavailable.
func (r *Resolver) Resolve(ctx context.Context, contentType, contentID string) (*models.TitleInfo, error) {
	cacheKey := "meta:" + contentType + ":" + contentID

	if r.store != nil {
		if raw, ok := r.store.Get(cacheKey); ok {
			var cached models.TitleInfo
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var (
		info *models.TitleInfo
		err  error
	)
	if strings.HasPrefix(contentID, "kitsu:") {
		info, err = r.resolveKitsu(ctx, contentID)
	} else {
		info, err = r.resolveCinemeta(ctx, contentType, contentID)
	}
	if err != nil {
		return nil, &apperrors.ErrMetadataUnavailable{ContentID: contentID, Cause: err}
	}
	if info.Title == "" {
		return nil, &apperrors.ErrMetadataUnavailable{ContentID: contentID}
	}

	if r.store != nil {
		if raw, marshalErr := json.Marshal(info); marshalErr == nil {
			r.store.Set(cacheKey, raw, r.cacheTTL)
		}
	}
	return info, nil
}

// resolveCinemeta fetches Cinemeta metadata for an IMDb-prefixed id.
// Cinemeta has occasional hiccups; the lookup is retried once.
func (r *Resolver) resolveCinemeta(ctx context.Context, contentType, contentID string) (*models.TitleInfo, error) {
	parts := strings.Split(contentID, ":")
	imdbID := parts[0]

	var season, episode *int
	if contentType == "series" && len(parts) >= 3 {
		season = atoiPtr(parts[1])
		episode = atoiPtr(parts[2])
	}

	metaURL := fmt.Sprintf("%s/meta/%s/%s.json", r.cinemetaURL, contentType, imdbID)

	return failsafe.With[*models.TitleInfo](r.retry).WithContext(ctx).Get(func() (*models.TitleInfo, error) {
		var payload struct {
			Meta struct {
				Name string   `json:"name"`
				Year flexYear `json:"year"`
			} `json:"meta"`
		}
		if err := r.getJSON(ctx, metaURL, "", &payload); err != nil {
			return nil, err
		}
		return &models.TitleInfo{
			Title:   payload.Meta.Name,
			Year:    int(payload.Meta.Year),
			Season:  season,
			Episode: episode,
		}, nil
	})
}

// resolveKitsu fetches anime metadata for a "kitsu:ID:EP" id. Kitsu entries
// are per-season, so the season is always 1 relative to the entry's title.
func (r *Resolver) resolveKitsu(ctx context.Context, contentID string) (*models.TitleInfo, error) {
	parts := strings.Split(contentID, ":")
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed kitsu id %q", contentID)
	}
	kitsuID := parts[1]
	var episode *int
	if len(parts) >= 3 {
		episode = atoiPtr(parts[2])
	}
	season := 1

	var payload struct {
		Data struct {
			Attributes struct {
				Titles struct {
					En   string `json:"en"`
					EnJp string `json:"en_jp"`
					JaJp string `json:"ja_jp"`
				} `json:"titles"`
				CanonicalTitle string `json:"canonicalTitle"`
				StartDate      string `json:"startDate"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := r.getJSON(ctx, r.kitsuURL+"/anime/"+kitsuID, "application/vnd.api+json", &payload); err != nil {
		return nil, err
	}

	attrs := payload.Data.Attributes
	title := attrs.Titles.En
	if title == "" {
		title = attrs.Titles.EnJp
	}
	if title == "" {
		title = attrs.CanonicalTitle
	}
	if title == "" {
		title = attrs.Titles.JaJp
	}

	year := 0
	if len(attrs.StartDate) >= 4 {
		if y, err := strconv.Atoi(attrs.StartDate[:4]); err == nil {
			year = y
		}
	}

	return &models.TitleInfo{
		Title:   title,
		Year:    year,
		Season:  &season,
		Episode: episode,
	}, nil
}

// getJSON performs a GET request and decodes the JSON response body.
func (r *Resolver) getJSON(ctx context.Context, url, accept string, out any) error {
	logger := config.GetLogger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Str("url", url).Msg("Metadata request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata endpoint returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// flexYear tolerates Cinemeta's mixed year representations: a number, a
// year string, or a range string like "2013-2015" (leading year wins).
type flexYear int

func (y *flexYear) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = flexYear(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*y = 0
		return nil
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		*y = 0
		return nil
	}
	*y = flexYear(n)
	return nil
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
