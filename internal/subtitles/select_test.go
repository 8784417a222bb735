package subtitles

import (
	"testing"

	"scribe/internal/media"
)

func track(ext string) media.CaptionTrack {
	return media.CaptionTrack{Ext: ext, URL: "https://captions.example/" + ext}
}

func TestPickTrackPrefersManualRequestedLanguage(t *testing.T) {
	meta := &media.Metadata{
		Subtitles: map[string][]media.CaptionTrack{
			"de": {track("vtt")},
			"en": {track("vtt")},
		},
		AutomaticCaptions: map[string][]media.CaptionTrack{
			"de": {track("json3")},
		},
	}

	sel := PickTrack(meta, "de")
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.Language != "de" || sel.Auto {
		t.Fatalf("expected manual de, got %+v", sel)
	}
}

func TestPickTrackFallsBackToManualEnglish(t *testing.T) {
	meta := &media.Metadata{
		Subtitles: map[string][]media.CaptionTrack{
			"en-US": {track("srt")},
		},
		AutomaticCaptions: map[string][]media.CaptionTrack{
			"fr": {track("json3")},
		},
	}

	sel := PickTrack(meta, "fr")
	if sel == nil {
		t.Fatal("expected a selection")
	}
	// Auto captions in the requested language lose to manual English.
	if sel.Language != "en-US" || sel.Auto {
		t.Fatalf("expected manual en-US, got %+v", sel)
	}
}

func TestPickTrackUsesAutoWhenNoManualExists(t *testing.T) {
	meta := &media.Metadata{
		AutomaticCaptions: map[string][]media.CaptionTrack{
			"fr": {track("vtt")},
			"en": {track("vtt")},
		},
	}

	sel := PickTrack(meta, "fr")
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.Language != "fr" || !sel.Auto {
		t.Fatalf("expected auto fr, got %+v", sel)
	}
}

func TestPickTrackMatchesLanguageVariants(t *testing.T) {
	meta := &media.Metadata{
		Subtitles: map[string][]media.CaptionTrack{
			"pt-BR": {track("vtt")},
		},
	}

	sel := PickTrack(meta, "pt")
	if sel == nil {
		t.Fatal("expected pt to match pt-BR")
	}
	if sel.Language != "pt-BR" {
		t.Fatalf("expected pt-BR, got %q", sel.Language)
	}
}

func TestPickTrackPrefersWordTimedFormat(t *testing.T) {
	meta := &media.Metadata{
		Subtitles: map[string][]media.CaptionTrack{
			"en": {track("srt"), track("json3"), track("vtt")},
		},
	}

	sel := PickTrack(meta, "en")
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.Track.Ext != "json3" {
		t.Fatalf("expected json3 rendition, got %q", sel.Track.Ext)
	}
}

func TestPickTrackNoCaptions(t *testing.T) {
	if sel := PickTrack(&media.Metadata{}, "en"); sel != nil {
		t.Fatalf("expected nil selection, got %+v", sel)
	}
	if sel := PickTrack(nil, "en"); sel != nil {
		t.Fatalf("expected nil selection for nil metadata, got %+v", sel)
	}
}
