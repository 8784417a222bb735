package subtitles

import (
	"strings"

	"golang.org/x/text/language"

	"scribe/internal/media"
)

// englishVariants is the fallback preference when the requested language has
// no captions.
var englishVariants = []string{"en", "en-US", "en-GB"}

// Selection names the chosen caption track and how it was chosen.
type Selection struct {
	Track    media.CaptionTrack
	Language string
	// Auto reports whether the track is machine-generated.
	Auto bool
}

// formatRank orders renditions within a language: word-timed json3 first,
// then generic timed text, then SubRip.
var formatRank = map[string]int{
	"json3": 0,
	"vtt":   1,
	"srt":   2,
}

// PickTrack selects the best caption track from upstream metadata. Manual
// captions in the requested language win, then manual English variants, then
// auto-generated captions in the requested language, then auto-generated
// English. Returns nil when no acceptable track exists.
func PickTrack(meta *media.Metadata, requestedLang string) *Selection {
	if meta == nil {
		return nil
	}
	requestedLang = strings.TrimSpace(requestedLang)

	if sel := pickFromTracks(meta.Subtitles, requestedLang, false); sel != nil {
		return sel
	}
	if sel := pickFromTracks(meta.AutomaticCaptions, requestedLang, true); sel != nil {
		return sel
	}
	return nil
}

func pickFromTracks(tracks map[string][]media.CaptionTrack, requestedLang string, auto bool) *Selection {
	if len(tracks) == 0 {
		return nil
	}
	if requestedLang != "" {
		if lang, ok := matchLanguage(tracks, requestedLang); ok {
			return &Selection{Track: bestFormat(tracks[lang]), Language: lang, Auto: auto}
		}
	}
	for _, variant := range englishVariants {
		if renditions, ok := tracks[variant]; ok && len(renditions) > 0 {
			return &Selection{Track: bestFormat(renditions), Language: variant, Auto: auto}
		}
	}
	return nil
}

// matchLanguage finds a track key whose base language matches the requested
// tag, so a request for "en" accepts "en-US" and vice versa.
func matchLanguage(tracks map[string][]media.CaptionTrack, requested string) (string, bool) {
	if renditions, ok := tracks[requested]; ok && len(renditions) > 0 {
		return requested, true
	}
	want, err := language.Parse(requested)
	if err != nil {
		return "", false
	}
	wantBase, _ := want.Base()

	best := ""
	for key, renditions := range tracks {
		if len(renditions) == 0 {
			continue
		}
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		if base != wantBase {
			continue
		}
		if best == "" || key < best {
			best = key
		}
	}
	return best, best != ""
}

func bestFormat(renditions []media.CaptionTrack) media.CaptionTrack {
	best := renditions[0]
	bestRank := rankOf(best.Ext)
	for _, track := range renditions[1:] {
		if rank := rankOf(track.Ext); rank < bestRank {
			best = track
			bestRank = rank
		}
	}
	return best
}

func rankOf(ext string) int {
	if rank, ok := formatRank[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return rank
	}
	return len(formatRank)
}
