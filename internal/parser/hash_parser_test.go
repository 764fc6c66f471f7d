package parser

import (
	"strings"
	"testing"
)

func downloadForm(id, hash string) string {
	return `<form method="POST" action="sciagnij.php">` +
		`<input type="hidden" name="id" value="` + id + `">` +
		`<input type="hidden" name="sh" value="` + hash + `">` +
		`</form>`
}

func TestFindFreshHash(t *testing.T) {
	t.Parallel()

	page := "<html><body>" +
		downloadForm("111", "hash-a") +
		downloadForm("222", "hash-b") +
		downloadForm("333", "hash-c") +
		"</body></html>"

	hash, err := FindFreshHash(strings.NewReader(page), "222")
	if err != nil {
		t.Fatalf("FindFreshHash: %v", err)
	}
	if hash != "hash-b" {
		t.Errorf("Expected hash-b, got %q", hash)
	}
}

func TestFindFreshHash_IDNotOnPage(t *testing.T) {
	t.Parallel()

	page := "<html><body>" + downloadForm("111", "hash-a") + "</body></html>"
	hash, err := FindFreshHash(strings.NewReader(page), "999")
	if err != nil {
		t.Fatalf("FindFreshHash: %v", err)
	}
	if hash != "" {
		t.Errorf("Expected empty hash for absent id, got %q", hash)
	}
}

func TestFindFreshHash_IgnoresOtherForms(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<form method="GET" action="szukaj.php"><input name="id" value="111"></form>` +
		downloadForm("111", "hash-a") +
		"</body></html>"

	hash, err := FindFreshHash(strings.NewReader(page), "111")
	if err != nil {
		t.Fatalf("FindFreshHash: %v", err)
	}
	if hash != "hash-a" {
		t.Errorf("Expected hash from the download form only, got %q", hash)
	}
}
