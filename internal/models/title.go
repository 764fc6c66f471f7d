package models

// TitleInfo holds the resolved metadata for a discovery request.
// Season and Episode are nil for movie lookups.
type TitleInfo struct {
	Title   string
	Year    int
	Season  *int
	Episode *int
}
