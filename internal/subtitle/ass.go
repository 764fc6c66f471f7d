package subtitle

import (
	"regexp"
	"strings"
)

// Fixed template pieces used when repairing or rebuilding a document.
// The style line mirrors what libass ships as its own default; the renderer
// rejects a [V4+ Styles] section without a Format line and a Default style.
const (
	scriptTypeLine   = "ScriptType: v4.00+"
	stylesFormatLine = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	defaultStyleLine = "Style: Default,Arial,52,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1"
	eventsFormatLine = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

var (
	sectionHeaderRe = regexp.MustCompile(`^\s*\[.*\]$`)
	wellFormedTsRe  = regexp.MustCompile(`^\d+:\d{2}:\d{2}\.\d{2}$`)
	noCentisRe      = regexp.MustCompile(`^\d+:\d{2}:\d{2}$`)
	leadingZeroRe   = regexp.MustCompile(`^0+(\d:)`)
)

// Normalize validates and repairs the structure of an ASS/SSA document so a
// strict renderer accepts it, then normalizes every Dialogue/Comment
// timestamp. The result uses \n line endings only and is idempotent:
// normalizing an already-normalized document is a no-op.
func Normalize(content string) string {
	return fixDialogueTimestamps(repairStructure(content))
}

// repairStructure ensures the document contains exactly the sections
// [Script Info] (with ScriptType), [V4+ Styles] (with Format and a Default
// style) and [Events] (with Format). A document missing any of the four
// required elements is rebuilt from a minimal template, keeping only its
// events and non-default styles.
func repairStructure(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\x00", "")
	content = strings.ReplaceAll(content, "\r", "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	var hasScriptInfo, hasStyles, hasEvents, hasScriptType bool
	for _, line := range lines {
		switch {
		case line == "[Script Info]":
			hasScriptInfo = true
		case line == "[V4+ Styles]":
			hasStyles = true
		case line == "[Events]":
			hasEvents = true
		case strings.HasPrefix(line, "ScriptType:"):
			hasScriptType = true
		}
	}

	if !hasScriptInfo || !hasStyles || !hasEvents || !hasScriptType {
		lines = rebuildMinimal(lines)
	} else {
		lines = repairSections(lines)
	}

	// Renderers reject section headers with surrounding whitespace.
	for i, line := range lines {
		if sectionHeaderRe.MatchString(line) {
			lines[i] = strings.TrimSpace(line)
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	return strings.Join(lines, "\n")
}

// rebuildMinimal discards everything except events and non-default styles and
// reassembles a minimal valid document around them. Structure that broken is
// not worth preserving; a renderer-acceptable file is.
func rebuildMinimal(lines []string) []string {
	var events, styles []string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Dialogue:") || strings.HasPrefix(line, "Comment:"):
			events = append(events, line)
		case strings.HasPrefix(line, "Style:") && !strings.HasPrefix(line, "Style: Default"):
			styles = append(styles, line)
		}
	}

	rebuilt := []string{
		"[Script Info]",
		"Title: Subtitle",
		scriptTypeLine,
		"WrapStyle: 0",
		"PlayResX: 1920",
		"PlayResY: 1080",
		"ScaledBorderAndShadow: yes",
		"YCbCr Matrix: TV.709",
		"",
		"[V4+ Styles]",
		stylesFormatLine,
		defaultStyleLine,
	}
	rebuilt = append(rebuilt, styles...)
	rebuilt = append(rebuilt, "", "[Events]", eventsFormatLine)
	rebuilt = append(rebuilt, events...)
	return rebuilt
}

// repairSections performs targeted inserts on a document whose required
// sections are all present: a missing ScriptType right after [Script Info],
// missing Format/Default-style lines inside [V4+ Styles], and a missing
// Format line inside [Events].
func repairSections(lines []string) []string {
	hasScriptType := false
	for _, line := range lines {
		if strings.HasPrefix(line, "ScriptType:") {
			hasScriptType = true
			break
		}
	}
	if !hasScriptType {
		if idx := indexOf(lines, "[Script Info]"); idx >= 0 {
			lines = insertAt(lines, idx+1, scriptTypeLine)
		}
	}

	if stylesIdx := indexOf(lines, "[V4+ Styles]"); stylesIdx >= 0 {
		var hasFormat, hasDefault bool
		for i := stylesIdx + 1; i < len(lines) && !strings.HasPrefix(lines[i], "["); i++ {
			if strings.HasPrefix(lines[i], "Format:") {
				hasFormat = true
			}
			if strings.HasPrefix(lines[i], "Style: Default") {
				hasDefault = true
			}
		}
		if !hasFormat {
			lines = insertAt(lines, stylesIdx+1, stylesFormatLine)
		}
		if !hasDefault {
			for i := stylesIdx + 1; i < len(lines); i++ {
				if strings.HasPrefix(lines[i], "Format:") {
					lines = insertAt(lines, i+1, defaultStyleLine)
					break
				}
			}
		}
	}

	if eventsIdx := indexOf(lines, "[Events]"); eventsIdx >= 0 {
		hasFormat := false
		for i := eventsIdx + 1; i < len(lines) && !strings.HasPrefix(lines[i], "["); i++ {
			if strings.HasPrefix(lines[i], "Format:") {
				hasFormat = true
				break
			}
		}
		if !hasFormat {
			lines = insertAt(lines, eventsIdx+1, eventsFormatLine)
		}
	}

	return lines
}

func indexOf(lines []string, target string) int {
	for i, line := range lines {
		if line == target {
			return i
		}
	}
	return -1
}

func insertAt(lines []string, idx int, value string) []string {
	lines = append(lines, "")
	copy(lines[idx+1:], lines[idx:])
	lines[idx] = value
	return lines
}

// fixDialogueTimestamps normalizes the start and end fields of every
// Dialogue/Comment line to the H:MM:SS.CC pattern.
func fixDialogueTimestamps(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "Dialogue:") && !strings.HasPrefix(line, "Comment:") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		parts[1] = normalizeTimestamp(parts[1])
		parts[2] = normalizeTimestamp(parts[2])
		lines[i] = strings.Join(parts, ",")
	}
	return strings.Join(lines, "\n")
}

// normalizeTimestamp repairs a single ASS timestamp: decimal comma to dot,
// missing centiseconds appended as .00, redundant leading zeros on the hour
// stripped. Already well-formed input is returned unchanged.
func normalizeTimestamp(ts string) string {
	ts = strings.TrimSpace(ts)
	if wellFormedTsRe.MatchString(ts) {
		return ts
	}
	ts = strings.Replace(ts, ",", ".", 1)
	if noCentisRe.MatchString(ts) {
		ts += ".00"
	}
	return leadingZeroRe.ReplaceAllString(ts, "$1")
}
