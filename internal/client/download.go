package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Belphemur/AnimeSub/internal/apperrors"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
	"github.com/Belphemur/AnimeSub/internal/parser"
)

const downloadPath = "/sciagnij.php"

// maxDownloadSize bounds how much of a download response is read into memory.
const maxDownloadSize = 20 << 20

// Rejection markers the site embeds in its error page. The page is served as
// ISO-8859-2, so the Polish markers are matched both as raw legacy bytes and
// as UTF-8 in case an intermediary transcoded the body.
var rejectionMarkers = [][]byte{
	[]byte("zabezpiecze"),
	[]byte("Błąd"),           // UTF-8
	{0x42, 0xB3, 0xB1, 0x64}, // ISO-8859-2
}

// DownloadRaw implements the Client interface.
//
// Access hashes are bound to the session that scraped them and expire
// quickly, so the stored hash from discovery is never trusted: the download
// replays the original search within a single session, captures its cookies,
// scrapes the current hash for the subtitle id, and only then issues the
// download POST. The stale hash is used as a last resort when the replayed
// search no longer lists the subtitle.
func (c *client) DownloadRaw(ctx context.Context, req *models.DownloadRequest) ([]byte, error) {
	logger := config.GetLogger()

	query := req.Query
	if query == "" {
		query = "test"
	}
	variant := req.Variant
	if variant == "" {
		variant = models.VariantOriginal
	}

	searchURL := c.searchURL(query, variant)

	searchReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash refresh request: %w", err)
	}
	siteHeaders(searchReq)

	searchResp, err := c.httpClient.Do(searchReq)
	if err != nil {
		return nil, fmt.Errorf("hash refresh request failed: %w", err)
	}
	searchBody, err := io.ReadAll(io.LimitReader(searchResp.Body, maxDownloadSize))
	cookies := searchResp.Cookies()
	searchResp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash refresh response: %w", err)
	}

	freshHash, err := parser.FindFreshHash(bytes.NewReader(searchBody), req.ID)
	if err != nil {
		logger.Warn().Err(err).Str("id", req.ID).Msg("Fresh hash scrape failed, falling back to stored hash")
	}
	if freshHash == "" {
		freshHash = req.Hash
	}
	if freshHash == "" {
		return nil, &apperrors.ErrAccessRejected{SubtitleID: req.ID}
	}

	form := url.Values{}
	form.Set("id", req.ID)
	form.Set("sh", freshHash)
	form.Set("single_file", "Pobierz napisy")

	downloadReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+downloadPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	siteHeaders(downloadReq)
	downloadReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	downloadReq.Header.Set("Referer", searchURL)
	downloadReq.Header.Set("Origin", c.baseURL)
	for _, cookie := range cookies {
		downloadReq.AddCookie(cookie)
	}

	downloadResp, err := c.httpClient.Do(downloadReq)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer downloadResp.Body.Close()

	if downloadResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", downloadResp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(downloadResp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read download response: %w", err)
	}

	if isRejectionPage(payload) {
		logger.Warn().Str("id", req.ID).Msg("Site rejected the access hash")
		return nil, &apperrors.ErrAccessRejected{SubtitleID: req.ID}
	}

	logger.Debug().Str("id", req.ID).Int("size", len(payload)).Msg("Subtitle payload downloaded")
	return payload, nil
}

// isRejectionPage reports whether the payload is the site's HTML error page
// instead of a subtitle file.
func isRejectionPage(payload []byte) bool {
	for _, marker := range rejectionMarkers {
		if bytes.Contains(payload, marker) {
			return true
		}
	}
	return false
}
