package textenc

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding labels reported by Detect.
const (
	EncodingUTF8BOM    = "utf8-bom"
	EncodingUTF16LEBOM = "utf16le-bom"
	EncodingUTF16BEBOM = "utf16be-bom"
	EncodingUTF16LE    = "utf-16le"
	EncodingUTF16BE    = "utf-16be"
	EncodingUTF8       = "utf8"
	EncodingWin1250    = "windows-1250"
	EncodingISO88592   = "iso-8859-2"
)

// DecodedText is the result of classifying and decoding a raw subtitle payload.
type DecodedText struct {
	Text     string
	Encoding string
}

// sniffSampleSize bounds how many bytes the UTF-16 zero-byte heuristic inspects.
const sniffSampleSize = 2000

// Detect classifies the byte encoding of a raw subtitle payload and decodes it.
//
// Structural signals are checked before statistical ones:
//  1. UTF-8 BOM
//  2. UTF-16LE/BE BOM
//  3. UTF-16 without BOM, detected from zero-byte distribution in byte pairs
//  4. Strict UTF-8 validation
//  5. windows-1250 vs ISO-8859-2, scored for Polish-looking output
func Detect(buf []byte) DecodedText {
	if len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return DecodedText{Text: string(buf[3:]), Encoding: EncodingUTF8BOM}
	}
	if len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE {
		return DecodedText{Text: decodeUTF16(buf[2:], false), Encoding: EncodingUTF16LEBOM}
	}
	if len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF {
		return DecodedText{Text: decodeUTF16(buf[2:], true), Encoding: EncodingUTF16BEBOM}
	}

	switch sniffUTF16NoBOM(buf) {
	case EncodingUTF16LE:
		return DecodedText{Text: decodeUTF16(buf, false), Encoding: EncodingUTF16LE}
	case EncodingUTF16BE:
		return DecodedText{Text: decodeUTF16(buf, true), Encoding: EncodingUTF16BE}
	}

	// Strict UTF-8 before any legacy code page guessing: silently decoding
	// valid UTF-8 as windows-1250 would mangle every multi-byte sequence.
	if utf8.Valid(buf) {
		return DecodedText{Text: string(buf), Encoding: EncodingUTF8}
	}

	return decodeLegacy(buf)
}

// sniffUTF16NoBOM detects BOM-less UTF-16 from the distribution of zero bytes
// in byte pairs. ASCII-range UTF-16LE text looks like "A\x00B\x00", so odd
// positions are mostly zero while even positions almost never are.
func sniffUTF16NoBOM(buf []byte) string {
	n := len(buf)
	if n > sniffSampleSize {
		n = sniffSampleSize
	}
	if n < 8 {
		return ""
	}

	var zerosEven, zerosOdd, pairs int
	for i := 0; i+1 < n; i += 2 {
		if buf[i] == 0x00 {
			zerosEven++
		}
		if buf[i+1] == 0x00 {
			zerosOdd++
		}
		pairs++
	}

	evenRatio := float64(zerosEven) / float64(pairs)
	oddRatio := float64(zerosOdd) / float64(pairs)

	if oddRatio > 0.30 && evenRatio < 0.05 {
		return EncodingUTF16LE
	}
	if evenRatio > 0.30 && oddRatio < 0.05 {
		return EncodingUTF16BE
	}
	return ""
}

// decodeUTF16 decodes a UTF-16 byte stream without a BOM prefix.
// A trailing odd byte is dropped.
func decodeUTF16(buf []byte, bigEndian bool) string {
	units := make([]uint16, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		if bigEndian {
			units = append(units, uint16(buf[i])<<8|uint16(buf[i+1]))
		} else {
			units = append(units, uint16(buf[i+1])<<8|uint16(buf[i]))
		}
	}
	return string(utf16.Decode(units))
}

// decodeLegacy decodes the buffer as both windows-1250 and ISO-8859-2 and
// keeps whichever scores more Polish. Ties favor windows-1250, the more
// common encoding in the source corpus.
func decodeLegacy(buf []byte) DecodedText {
	win := decodeCharmap(buf, charmap.Windows1250)
	iso := decodeCharmap(buf, charmap.ISO8859_2)

	if scorePolishText(win) >= scorePolishText(iso) {
		return DecodedText{Text: win, Encoding: EncodingWin1250}
	}
	return DecodedText{Text: iso, Encoding: EncodingISO88592}
}

func decodeCharmap(buf []byte, cm *charmap.Charmap) string {
	out, err := cm.NewDecoder().Bytes(buf)
	if err != nil {
		// Charmap decoders map every byte; this path should be unreachable.
		return string(buf)
	}
	return string(out)
}

const (
	polishDiacritics  = "ąćęłńóśźżĄĆĘŁŃÓŚŹŻ"
	mojibakeIndicator = "ÃÅÄĹĽÐÑÒÓÕÖØ"
)

// scorePolishText rates decoded text: Polish diacritics score up, characters
// typical of a wrong code-page choice and stray control characters score down.
func scorePolishText(t string) int {
	score := 0
	for _, r := range t {
		switch {
		case strings.ContainsRune(polishDiacritics, r):
			score += 3
		case strings.ContainsRune(mojibakeIndicator, r):
			score -= 2
		case isBareControl(r):
			score -= 5
		}
	}
	return score
}

// isBareControl reports control characters that have no business in subtitle
// text. Tab, LF and CR are legitimate.
func isBareControl(r rune) bool {
	if r > 0x1F {
		return false
	}
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return true
}
