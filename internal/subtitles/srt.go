package subtitles

import (
	"strconv"
	"strings"

	"scribe/internal/store"
)

// ParseSRT parses SubRip content into ordered segments. Index lines are
// ignored (segments are renumbered sequentially) and multi-line cue text is
// merged into one segment.
func ParseSRT(content string) []store.Segment {
	var segments []store.Segment
	blocks := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")

	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		timingIdx := 0
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			timingIdx = 1
		}
		if timingIdx >= len(lines) || !strings.Contains(lines[timingIdx], "-->") {
			continue
		}

		parts := strings.SplitN(lines[timingIdx], "-->", 2)
		if len(parts) != 2 {
			continue
		}
		start, errStart := ParseTimestamp(parts[0])
		end, errEnd := ParseTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			continue
		}

		var textLines []string
		for _, text := range lines[timingIdx+1:] {
			text = stripMarkup(strings.TrimSpace(text))
			if text != "" {
				textLines = append(textLines, text)
			}
		}
		text := strings.Join(textLines, " ")
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
