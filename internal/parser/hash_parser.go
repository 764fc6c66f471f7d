package parser

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// FindFreshHash scans a search result page for the download form belonging to
// subtitleID and returns its current session hash. The hashes embedded in
// result pages are tied to the session that fetched them, so a download must
// always use a hash scraped moments before.
//
// Returns ("", nil) when no form for the id is present on the page.
func FindFreshHash(body io.Reader, subtitleID string) (string, error) {
	utf8Body, err := NewSiteReader(body)
	if err != nil {
		return "", fmt.Errorf("failed to build charset reader: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var hash string
	doc.Find(`form[method="POST"][action="sciagnij.php"]`).EachWithBreak(func(i int, form *goquery.Selection) bool {
		formID, _ := form.Find(`input[name="id"]`).Attr("value")
		if formID != subtitleID {
			return true
		}
		hash, _ = form.Find(`input[name="sh"]`).Attr("value")
		return false
	})

	return hash, nil
}
