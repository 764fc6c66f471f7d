package models

// Manifest describes the addon to Stremio clients.
type Manifest struct {
	ID            string        `json:"id"`
	Version       string        `json:"version"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Logo          string        `json:"logo,omitempty"`
	Resources     []string      `json:"resources"`
	Types         []string      `json:"types"`
	IDPrefixes    []string      `json:"idPrefixes"`
	Catalogs      []CatalogItem `json:"catalogs"`
	BehaviorHints BehaviorHints `json:"behaviorHints"`
}

// CatalogItem is one catalog entry in the manifest. This addon exposes none.
type CatalogItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// BehaviorHints flags addon capabilities to the client.
type BehaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

// WireSubtitle is one subtitle entry in a discovery response.
type WireSubtitle struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Lang string `json:"lang"`
	Name string `json:"SubtitleName,omitempty"`
}

// SubtitlesResponse is the discovery response body. Always returned with
// HTTP 200; failures degrade to an empty Subtitles slice.
type SubtitlesResponse struct {
	Subtitles []WireSubtitle `json:"subtitles"`
}
