package drafts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := OpenLocalStore(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("failed to open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLocalStoreSetGetRoundTrip(t *testing.T) {
	store := newTestLocalStore(t)

	record := Draft{
		DocumentID:       "doc-1",
		Author:           "device-key-1",
		IsLocal:          true,
		Title:            "Offline draft",
		UpdatedAtSeconds: 10,
	}
	if err := store.Set(context.Background(), record); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}

	loaded, err := store.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("failed to read record: %v", err)
	}
	if loaded.Title != "Offline draft" || !loaded.IsLocal {
		t.Fatalf("unexpected record: %+v", loaded)
	}
}

func TestLocalStoreGetUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestLocalStore(t)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocalStoreDeleteUnknownIDIsNoOp(t *testing.T) {
	store := newTestLocalStore(t)

	if err := store.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("expected delete of unknown id to succeed, got %v", err)
	}
}

func TestLocalStoreListOrdersNewestFirst(t *testing.T) {
	store := newTestLocalStore(t)

	for _, record := range []Draft{
		{DocumentID: "doc-old", Author: "device-key-1", UpdatedAtSeconds: 10},
		{DocumentID: "doc-new", Author: "device-key-1", UpdatedAtSeconds: 30},
		{DocumentID: "doc-mid", Author: "device-key-1", UpdatedAtSeconds: 20},
		{DocumentID: "doc-other", Author: "device-key-2", UpdatedAtSeconds: 40},
	} {
		if err := store.Set(context.Background(), record); err != nil {
			t.Fatalf("failed to write %s: %v", record.DocumentID, err)
		}
	}

	records, err := store.List(context.Background(), "device-key-1")
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected three records for author, got %d", len(records))
	}
	expected := []string{"doc-new", "doc-mid", "doc-old"}
	for i, documentID := range expected {
		if records[i].DocumentID != documentID {
			t.Fatalf("expected order %v, got %s at %d", expected, records[i].DocumentID, i)
		}
	}
}
