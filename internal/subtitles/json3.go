package subtitles

import (
	"encoding/json"
	"strings"

	"scribe/internal/store"
)

// json3Document mirrors the wire shape of YouTube's json3 timed-text format.
// Events carry a start offset and duration in milliseconds plus a list of
// text runs; runs may carry their own offsets, which yields word timings.
type json3Document struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64      `json:"tStartMs"`
	DurationMs int64      `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	Text     string `json:"utf8"`
	OffsetMs int64  `json:"tOffsetMs"`
}

// ParseJSON3 parses json3 timed-text content into ordered segments with word
// timings. Events without text runs (window definitions, newline-only runs)
// are skipped.
func ParseJSON3(content string) []store.Segment {
	var doc json3Document
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil
	}

	var segments []store.Segment
	for _, event := range doc.Events {
		if len(event.Segs) == 0 {
			continue
		}
		start := float64(event.StartMs) / 1000
		end := float64(event.StartMs+event.DurationMs) / 1000

		var words []store.Word
		var parts []string
		for i, seg := range event.Segs {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			parts = append(parts, text)

			wordStart := start + float64(seg.OffsetMs)/1000
			wordEnd := end
			if i+1 < len(event.Segs) && event.Segs[i+1].OffsetMs > 0 {
				wordEnd = start + float64(event.Segs[i+1].OffsetMs)/1000
			}
			words = append(words, store.Word{Word: text, Start: wordStart, End: wordEnd})
		}

		text := strings.TrimSpace(strings.Join(parts, " "))
		if text == "" {
			continue
		}
		segments = append(segments, store.Segment{
			ID:    len(segments) + 1,
			Start: start,
			End:   end,
			Text:  text,
			Words: words,
		})
	}
	return segments
}

// ParseTrack dispatches on the track format. Unknown formats are tried as
// VTT first and SRT second, keeping whichever yields segments.
func ParseTrack(format, content string) []store.Segment {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json3":
		return ParseJSON3(content)
	case "vtt", "webvtt":
		return ParseVTT(content)
	case "srt", "srv1", "srv2", "srv3":
		return ParseSRT(content)
	default:
		if segments := ParseVTT(content); len(segments) > 0 {
			return segments
		}
		return ParseSRT(content)
	}
}
