package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/store"
)

// MustOpenStore opens a store against the test config and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedDocument inserts a pending work item and returns it.
func SeedDocument(t testing.TB, st *store.Store, id, url string) *store.Document {
	t.Helper()
	doc := &store.Document{
		ID:           id,
		CanonicalURL: url,
		MediaFormat:  store.FormatVideo,
	}
	if err := st.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}
