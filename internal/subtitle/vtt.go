package subtitle

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Belphemur/AnimeSub/internal/apperrors"
)

// dialogueFieldCount is the number of comma-separated fields before the free
// text of a Dialogue line: Layer, Start, End, Style, Name, MarginL, MarginR,
// MarginV, Effect, Text.
const dialogueFieldCount = 10

// Dimensions the \pos(x,y) tag is interpreted against when the script does
// not say otherwise. Matches the PlayRes the normalizer writes.
const (
	canvasWidth  = 1920.0
	canvasHeight = 1080.0
)

var (
	assTimestampRe = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})\.(\d{2})$`)
	alignTagRe     = regexp.MustCompile(`\{[^}]*\\an(\d)[^}]*\}`)
	posTagRe       = regexp.MustCompile(`\{[^}]*\\pos\(([0-9.]+),([0-9.]+)\)[^}]*\}`)
	tagBlockRe     = regexp.MustCompile(`\{[^}]*\}`)
	newlineRunRe   = regexp.MustCompile(`\n{3,}`)
)

// cue is one timed unit of WebVTT output.
type cue struct {
	start    string
	end      string
	startMs  int
	endMs    int
	text     string
	position string
}

// Transcode converts a normalized ASS document into a WebVTT document.
//
// Cues are sorted by start time (ties by end time) and cues sharing an
// identical (start, end, position) triple are merged into one cue with the
// texts joined by a newline: genuinely simultaneous dialogue renders as one
// multi-line cue instead of overlapping duplicates.
func Transcode(assText string) (string, error) {
	var cues []cue

	for _, line := range strings.Split(assText, "\n") {
		if !strings.HasPrefix(line, "Dialogue:") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < dialogueFieldCount {
			continue
		}

		start, okStart := assTimestampToVTT(strings.TrimSpace(parts[1]))
		end, okEnd := assTimestampToVTT(strings.TrimSpace(parts[2]))
		if !okStart || !okEnd {
			continue
		}

		// Commas inside the text field are not separators.
		rawText := strings.TrimSpace(strings.Join(parts[9:], ","))

		// Position must be read before the tags are stripped away.
		position := detectPosition(rawText)
		text := stripTags(rawText)
		if text == "" {
			continue
		}

		cues = append(cues, cue{
			start:    start,
			end:      end,
			startMs:  vttToMs(start),
			endMs:    vttToMs(end),
			text:     text,
			position: position,
		})
	}

	sort.SliceStable(cues, func(i, j int) bool {
		if cues[i].startMs != cues[j].startMs {
			return cues[i].startMs < cues[j].startMs
		}
		return cues[i].endMs < cues[j].endMs
	})

	cues = mergeSimultaneous(cues)
	if len(cues) == 0 {
		return "", &apperrors.ErrConversionFailure{Reason: "no dialogue cues survived transcoding"}
	}

	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, c := range cues {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(c.start)
		b.WriteString(" --> ")
		b.WriteString(c.end)
		if c.position != "" {
			b.WriteByte(' ')
			b.WriteString(c.position)
		}
		b.WriteByte('\n')
		b.WriteString(c.text)
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// mergeSimultaneous concatenates the text of cues that share an identical
// (start, end, position) triple, preserving order of first appearance.
func mergeSimultaneous(cues []cue) []cue {
	if len(cues) == 0 {
		return nil
	}
	merged := make([]cue, 0, len(cues))
	for _, c := range cues {
		found := false
		for i := range merged {
			if merged[i].start == c.start && merged[i].end == c.end && merged[i].position == c.position {
				merged[i].text += "\n" + c.text
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, c)
		}
	}
	return merged
}

// detectPosition translates the first ASS position tag in the raw text into a
// WebVTT cue settings string. An empty result means default bottom-center
// placement and no settings are emitted.
//
// \anN uses numpad layout: 1-3 bottom, 4-6 middle, 7-9 top; columns 1/4/7
// left, 2/5/8 center, 3/6/9 right. \pos(x,y) is converted to percentages of
// the assumed canvas, with alignment chosen by horizontal thirds.
func detectPosition(rawText string) string {
	if m := alignTagRe.FindStringSubmatch(rawText); m != nil {
		an, _ := strconv.Atoi(m[1])
		if an >= 1 && an <= 9 {
			var line string
			switch {
			case an <= 3:
				line = "line:90%"
			case an >= 7:
				line = "line:10%"
			default:
				line = "line:50%"
			}
			var position string
			switch an % 3 {
			case 1:
				position = "position:10% align:left"
			case 0:
				position = "position:90% align:right"
			default:
				position = "position:50% align:center"
			}
			return line + " " + position
		}
	}

	if m := posTagRe.FindStringSubmatch(rawText); m != nil {
		x, errX := strconv.ParseFloat(m[1], 64)
		y, errY := strconv.ParseFloat(m[2], 64)
		if errX == nil && errY == nil {
			xPct := int(x/canvasWidth*100 + 0.5)
			yPct := int(y/canvasHeight*100 + 0.5)
			align := "align:center"
			if xPct < 33 {
				align = "align:left"
			} else if xPct > 66 {
				align = "align:right"
			}
			return fmt.Sprintf("line:%d%% position:%d%% %s", yPct, xPct, align)
		}
	}

	return ""
}

// stripTags removes ASS formatting from dialogue text: {...} override blocks
// are dropped, \N and \n become newlines, \h becomes a non-breaking space,
// and runs of three or more newlines collapse to two.
func stripTags(text string) string {
	text = tagBlockRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\N`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\h`, "\u00a0")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// assTimestampToVTT converts H:MM:SS.CC to HH:MM:SS.mmm.
func assTimestampToVTT(ts string) (string, bool) {
	m := assTimestampRe.FindStringSubmatch(ts)
	if m == nil {
		return "", false
	}
	hours := m[1]
	if len(hours) < 2 {
		hours = "0" + hours
	}
	centis, _ := strconv.Atoi(m[4])
	return fmt.Sprintf("%s:%s:%s.%03d", hours, m[2], m[3], centis*10), true
}

// vttToMs converts an HH:MM:SS.mmm timestamp to milliseconds for ordering.
func vttToMs(ts string) int {
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%d:%d:%d.%d", &h, &m, &s, &ms); err != nil {
		return 0
	}
	return ((h*3600+m*60+s)*1000 + ms)
}
