package parser

import (
	"io"

	"golang.org/x/net/html/charset"
)

// NewSiteReader wraps an io.Reader with conversion from the site's encoding
// to UTF-8. The site serves every page as ISO-8859-2 without declaring it in
// the response headers, so the label is forced rather than sniffed.
func NewSiteReader(body io.Reader) (io.Reader, error) {
	return charset.NewReaderLabel("iso-8859-2", body)
}
