package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Belphemur/AnimeSub/internal/metadata"
	"github.com/Belphemur/AnimeSub/internal/models"
)

// fakeClient serves canned search results keyed by query. Queries without an
// entry yield an empty result set.
type fakeClient struct {
	results  map[string][]models.SubtitleCandidate
	download []byte
	err      error
}

func (f *fakeClient) Search(ctx context.Context, query string, variant models.TitleVariant) ([]models.SubtitleCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeClient) DownloadRaw(ctx context.Context, req *models.DownloadRequest) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.download, nil
}

func (f *fakeClient) HTTPClient() *http.Client { return http.DefaultClient }
func (f *fakeClient) Close() error             { return nil }

// newTestResolver backs the resolver with a fixed Cinemeta response.
func newTestResolver(t *testing.T, name string) *metadata.Resolver {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"name":"` + name + `","year":2023}}`))
	}))
	t.Cleanup(server.Close)
	return metadata.NewResolver(server.Client(), nil, 0, server.URL, "")
}

func cand(id string, episode *int, downloads int) models.SubtitleCandidate {
	return models.SubtitleCandidate{ID: id, Hash: "h" + id, Episode: episode, DownloadCount: downloads}
}

func intPtr(n int) *int { return &n }

func TestDiscover_ExactMatchStopsConsumption(t *testing.T) {
	fc := &fakeClient{results: map[string][]models.SubtitleCandidate{
		// Most specific strategy already has the exact episode.
		"Frieren ep05": {cand("1", intPtr(5), 100)},
		"Frieren":      {cand("2", nil, 900)},
	}}
	svc := NewDiscoveryService(fc, newTestResolver(t, "Frieren"), time.Second, 2*time.Second)

	got := svc.Discover(context.Background(), "series", "tt1:1:5")
	if len(got) != 1 {
		t.Fatalf("Expected consumption to stop at the exact match, got %d candidates", len(got))
	}
	if got[0].ID != "1" {
		t.Errorf("Expected candidate 1, got %q", got[0].ID)
	}
	if got[0].Query != "Frieren ep05" {
		t.Errorf("Expected source query recorded, got %q", got[0].Query)
	}
	if got[0].Variant != models.VariantOriginal {
		t.Errorf("Expected original variant recorded, got %q", got[0].Variant)
	}
}

func TestDiscover_AggregatesDedupesAndSorts(t *testing.T) {
	// No candidate declares the target episode, so consumption walks all
	// strategies and aggregates.
	fc := &fakeClient{results: map[string][]models.SubtitleCandidate{
		"Frieren ep05": {cand("1", nil, 50), cand("2", nil, 10)},
		"Frieren":      {cand("1", nil, 50), cand("3", nil, 200)},
	}}
	svc := NewDiscoveryService(fc, newTestResolver(t, "Frieren"), time.Second, 2*time.Second)

	got := svc.Discover(context.Background(), "series", "tt1:1:5")
	if len(got) != 3 {
		t.Fatalf("Expected 3 deduped candidates, got %d", len(got))
	}
	if got[0].ID != "3" || got[1].ID != "1" || got[2].ID != "2" {
		t.Errorf("Expected download-count ordering [3 1 2], got [%s %s %s]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestDiscover_FiltersMismatchedEpisodes(t *testing.T) {
	fc := &fakeClient{results: map[string][]models.SubtitleCandidate{
		"Frieren ep05": {cand("wrong", intPtr(6), 500), cand("right", intPtr(5), 100)},
	}}
	svc := NewDiscoveryService(fc, newTestResolver(t, "Frieren"), time.Second, 2*time.Second)

	got := svc.Discover(context.Background(), "series", "tt1:1:5")
	if len(got) != 1 {
		t.Fatalf("Expected mismatched episode filtered, got %d candidates", len(got))
	}
	if got[0].ID != "right" {
		t.Errorf("Expected the matching candidate, got %q", got[0].ID)
	}
}

func TestDiscover_MetadataFailureIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	resolver := metadata.NewResolver(server.Client(), nil, 0, server.URL, "")

	svc := NewDiscoveryService(&fakeClient{}, resolver, time.Second, 2*time.Second)
	if got := svc.Discover(context.Background(), "series", "tt0:1:1"); got != nil {
		t.Errorf("Expected nil result on metadata failure, got %v", got)
	}
}

func TestDiscover_MovieLookup(t *testing.T) {
	fc := &fakeClient{results: map[string][]models.SubtitleCandidate{
		"Akira": {cand("1", nil, 10)},
	}}
	svc := NewDiscoveryService(fc, newTestResolver(t, "Akira"), time.Second, 2*time.Second)

	got := svc.Discover(context.Background(), "movie", "tt0094625")
	if len(got) != 1 {
		t.Fatalf("Expected 1 candidate for movie lookup, got %d", len(got))
	}
}
