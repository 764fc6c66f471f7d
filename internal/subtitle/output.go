package subtitle

import (
	"regexp"
	"strings"
)

var crlfRe = regexp.MustCompile(`\r?\n`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeSRT rewrites all line endings to CRLF. Some players refuse SRT
// files with bare LF endings.
func NormalizeSRT(text string) string {
	return crlfRe.ReplaceAllString(text, "\r\n")
}

// ToUTF8 encodes text as a UTF-8 byte buffer, removing any NUL bytes left
// over from bad source files. When withBOM is set a UTF-8 byte-order mark is
// prepended; ASS/SSA output must not carry one (libass compatibility), while
// SRT output should so players stop guessing the encoding.
func ToUTF8(text string, withBOM bool) []byte {
	cleaned := strings.ReplaceAll(text, "\x00", "")
	if !withBOM {
		return []byte(cleaned)
	}
	out := make([]byte, 0, len(utf8BOM)+len(cleaned))
	out = append(out, utf8BOM...)
	return append(out, cleaned...)
}

// DetectFormat picks srt, ass or ssa for a candidate from its format column
// and description, defaulting to srt.
func DetectFormat(formatHint, description string) string {
	desc := strings.ToLower(description)
	hint := strings.ToLower(formatHint)
	switch {
	case strings.Contains(desc, ".ass") || strings.Contains(hint, "ass"):
		return "ass"
	case strings.Contains(desc, ".ssa") || strings.Contains(hint, "ssa"):
		return "ssa"
	default:
		return "srt"
	}
}

// MimeType returns the Content-Type for a subtitle extension (with leading dot).
func MimeType(extension string) string {
	if extension == ".vtt" {
		return "text/vtt; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
