package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Belphemur/AnimeSub/internal/apperrors"
	"github.com/Belphemur/AnimeSub/internal/cache"
)

func newCinemetaServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolve_CinemetaSeries(t *testing.T) {
	t.Parallel()

	server := newCinemetaServer(t, `{"meta":{"name":"Frieren: Beyond Journey's End","year":2023}}`, nil)
	resolver := NewResolver(server.Client(), nil, 0, server.URL, "")

	info, err := resolver.Resolve(context.Background(), "series", "tt22248376:2:7")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Title != "Frieren: Beyond Journey's End" {
		t.Errorf("Expected title, got %q", info.Title)
	}
	if info.Year != 2023 {
		t.Errorf("Expected year 2023, got %d", info.Year)
	}
	if info.Season == nil || *info.Season != 2 {
		t.Errorf("Expected season 2, got %v", info.Season)
	}
	if info.Episode == nil || *info.Episode != 7 {
		t.Errorf("Expected episode 7, got %v", info.Episode)
	}
}

func TestResolve_CinemetaMovie(t *testing.T) {
	t.Parallel()

	server := newCinemetaServer(t, `{"meta":{"name":"Akira","year":"1988"}}`, nil)
	resolver := NewResolver(server.Client(), nil, 0, server.URL, "")

	info, err := resolver.Resolve(context.Background(), "movie", "tt0094625")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Title != "Akira" || info.Year != 1988 {
		t.Errorf("Expected Akira/1988, got %q/%d", info.Title, info.Year)
	}
	if info.Season != nil || info.Episode != nil {
		t.Error("Expected no season/episode for a movie")
	}
}

func TestResolve_CinemetaRetriesOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"meta":{"name":"Akira","year":1988}}`))
	}))
	t.Cleanup(server.Close)

	resolver := NewResolver(server.Client(), nil, 0, server.URL, "")
	info, err := resolver.Resolve(context.Background(), "movie", "tt0094625")
	if err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if info.Title != "Akira" {
		t.Errorf("Expected title from second attempt, got %q", info.Title)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", hits.Load())
	}
}

func TestResolve_EmptyTitleIsMetadataUnavailable(t *testing.T) {
	t.Parallel()

	server := newCinemetaServer(t, `{"meta":{"name":"","year":0}}`, nil)
	resolver := NewResolver(server.Client(), nil, 0, server.URL, "")

	_, err := resolver.Resolve(context.Background(), "movie", "tt0000000")
	if err == nil {
		t.Fatal("Expected error for empty title")
	}
	if !errors.Is(err, &apperrors.ErrMetadataUnavailable{}) {
		t.Errorf("Expected ErrMetadataUnavailable, got %v", err)
	}
}

func TestResolve_Kitsu(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/7442" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if accept := r.Header.Get("Accept"); accept != "application/vnd.api+json" {
			t.Errorf("Expected JSON:API accept header, got %q", accept)
		}
		w.Write([]byte(`{"data":{"attributes":{"titles":{"en":"Attack on Titan","en_jp":"Shingeki no Kyojin","ja_jp":"進撃の巨人"},"canonicalTitle":"Attack on Titan","startDate":"2013-04-07"}}}`))
	}))
	t.Cleanup(server.Close)

	resolver := NewResolver(server.Client(), nil, 0, "", server.URL)
	info, err := resolver.Resolve(context.Background(), "series", "kitsu:7442:12")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Title != "Attack on Titan" {
		t.Errorf("Expected English title preferred, got %q", info.Title)
	}
	if info.Year != 2013 {
		t.Errorf("Expected year from startDate, got %d", info.Year)
	}
	if info.Season == nil || *info.Season != 1 {
		t.Errorf("Expected season pinned to 1 for kitsu entries, got %v", info.Season)
	}
	if info.Episode == nil || *info.Episode != 12 {
		t.Errorf("Expected episode 12, got %v", info.Episode)
	}
}

func TestResolve_KitsuTitlePreference(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"attributes":{"titles":{"en":"","en_jp":"Sousou no Frieren","ja_jp":"葬送のフリーレン"},"canonicalTitle":"","startDate":"2023-09-29"}}}`))
	}))
	t.Cleanup(server.Close)

	resolver := NewResolver(server.Client(), nil, 0, "", server.URL)
	info, err := resolver.Resolve(context.Background(), "series", "kitsu:46474:1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Title != "Sousou no Frieren" {
		t.Errorf("Expected romaji fallback, got %q", info.Title)
	}
}

func TestResolve_MalformedKitsuID(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(http.DefaultClient, nil, 0, "", "http://127.0.0.1:0")
	_, err := resolver.Resolve(context.Background(), "series", "kitsu:")
	if err == nil {
		t.Fatal("Expected error for malformed kitsu id")
	}
	if !errors.Is(err, &apperrors.ErrMetadataUnavailable{}) {
		t.Errorf("Expected ErrMetadataUnavailable, got %v", err)
	}
}

func TestResolve_CachesResults(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newCinemetaServer(t, `{"meta":{"name":"Akira","year":1988}}`, &hits)

	store, err := cache.New("memory", cache.ProviderConfig{Size: 16, DefaultTTL: time.Minute, Group: "resolver-test"})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	resolver := NewResolver(server.Client(), store, time.Minute, server.URL, "")
	for range 3 {
		info, err := resolver.Resolve(context.Background(), "movie", "tt0094625")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if info.Title != "Akira" {
			t.Errorf("Expected cached title, got %q", info.Title)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single upstream request, got %d", hits.Load())
	}
}

func TestFlexYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"number", `2013`, 2013},
		{"string", `"2013"`, 2013},
		{"range", `"2013-2015"`, 2013},
		{"open range", `"2013-"`, 2013},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var y flexYear
			if err := y.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("UnmarshalJSON: %v", err)
			}
			if int(y) != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, int(y))
			}
		})
	}
}
