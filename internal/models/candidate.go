package models

// SubtitleCandidate represents one subtitle record scraped from a search-results page.
//
// Hash is a short-lived access token issued by the site alongside the ID.
// It can expire between search and download, so it must never be trusted at
// download time: the downloader re-runs the search and scrapes a fresh one.
type SubtitleCandidate struct {
	ID            string
	Hash          string
	TitleOrg      string
	TitleEng      string
	TitleAlt      string
	Author        string
	FormatHint    string
	DownloadCount int
	Description   string
	Season        *int
	Episode       *int
}

// MatchedCandidate is a SubtitleCandidate tagged with the search strategy
// that produced it, so download links can replay the same query.
type MatchedCandidate struct {
	SubtitleCandidate
	Query   string
	Variant TitleVariant
}
