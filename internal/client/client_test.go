package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Belphemur/AnimeSub/internal/cache"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
)

// resultPage builds a minimal search result page with one download form.
func resultPage(id, hash string) string {
	return `<html><body>
<table class="Napisy" style="text-align:center">
  <tr class="KNap"><td>Frieren ep05</td><td>2023</td><td>anime</td><td>ass</td></tr>
  <tr class="KNap"><td>Sousou no Frieren ep05</td><td><a href="#">Autor</a></td></tr>
  <tr class="KNap"><td>Frieren</td><td>-</td><td>-</td><td>500 razy</td></tr>
  <tr class="KKom">
    <td class="KNap" align="left">Opis</td>
    <td><form method="POST" action="sciagnij.php">
      <input name="id" value="` + id + `"><input name="sh" value="` + hash + `">
    </form></td>
  </tr>
</table>
</body></html>`
}

func newTestClient(t *testing.T, serverURL string, store cache.Cache) Client {
	t.Helper()
	c := NewClient(&config.Config{
		AnimeSubDomain: serverURL,
		ClientTimeout:  "10s",
	}, store)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/szukaj.php" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("szukane") != "Frieren ep05" {
			t.Errorf("Unexpected query %q", q.Get("szukane"))
		}
		if q.Get("pTitle") != "en" {
			t.Errorf("Expected English title variant, got %q", q.Get("pTitle"))
		}
		if q.Get("pSortuj") != "pobrn" {
			t.Errorf("Expected download-count sort, got %q", q.Get("pSortuj"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected browser-like User-Agent")
		}
		_, _ = w.Write([]byte(resultPage("54321", "deadbeef")))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	candidates, err := c.Search(context.Background(), "Frieren ep05", models.VariantEnglish)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ID != "54321" || candidates[0].Hash != "deadbeef" {
		t.Errorf("Unexpected candidate %+v", candidates[0])
	}
}

func TestSearch_CachesResults(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(resultPage("1", "aa")))
	}))
	defer server.Close()

	store, err := cache.New("memory", cache.ProviderConfig{Size: 16, DefaultTTL: time.Minute, Group: "client-search-test"})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	c := newTestClient(t, server.URL, store)
	for range 3 {
		if _, err := c.Search(context.Background(), "Akira", models.VariantOriginal); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single upstream request, got %d", hits.Load())
	}
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	if _, err := c.Search(context.Background(), "Akira", models.VariantOriginal); err == nil {
		t.Fatal("Expected error for non-200 response")
	}
}
