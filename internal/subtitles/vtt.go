package subtitles

import (
	"regexp"
	"strings"

	"scribe/internal/store"
)

var (
	markupTags  = regexp.MustCompile(`<[^>]*>`)
	cueSettings = regexp.MustCompile(`\s+(align|line|position|size|vertical):\S+`)
)

// ParseVTT parses WEBVTT content into ordered segments. Header, NOTE, and
// STYLE blocks are skipped; cue settings after the arrow are discarded and
// multi-line cue text is merged into one segment.
func ParseVTT(content string) []store.Segment {
	var segments []store.Segment
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") ||
			strings.HasPrefix(line, "REGION") {
			i++
			continue
		}
		if !strings.Contains(line, "-->") {
			// Cue identifier line; the timing line follows.
			i++
			continue
		}

		timing := cueSettings.ReplaceAllString(line, "")
		parts := strings.SplitN(timing, "-->", 2)
		if len(parts) != 2 {
			i++
			continue
		}
		start, errStart := ParseTimestamp(normalizeVTTTime(parts[0]))
		end, errEnd := ParseTimestamp(normalizeVTTTime(parts[1]))
		if errStart != nil || errEnd != nil {
			i++
			continue
		}

		var textLines []string
		i++
		for i < len(lines) {
			text := strings.TrimSpace(lines[i])
			if text == "" {
				break
			}
			textLines = append(textLines, stripMarkup(text))
			i++
		}
		text := strings.TrimSpace(strings.Join(textLines, " "))
		if text == "" {
			continue
		}
		segments = append(segments, store.Segment{
			ID:    len(segments) + 1,
			Start: start,
			End:   end,
			Text:  text,
		})
	}
	return segments
}

// normalizeVTTTime pads MM:SS.mmm timings to the HH:MM:SS form the shared
// parser expects.
func normalizeVTTTime(value string) string {
	value = strings.TrimSpace(value)
	if strings.Count(value, ":") == 1 {
		return "00:" + value
	}
	return value
}

func stripMarkup(text string) string {
	return strings.TrimSpace(markupTags.ReplaceAllString(text, ""))
}
