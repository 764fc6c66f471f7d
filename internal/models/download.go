package models

// DownloadRequest carries the query parameters of a download call.
type DownloadRequest struct {
	ID         string
	Hash       string
	Query      string
	Variant    TitleVariant
	FormatHint string // srt|ass|ssa|txt|sub|vtt
	ConvertVTT bool
}

// OutputSubtitle is the terminal artifact of the download pipeline.
type OutputSubtitle struct {
	Bytes     []byte
	MimeType  string
	Extension string // includes the leading dot, e.g. ".srt"
}
