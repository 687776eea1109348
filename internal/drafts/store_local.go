package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
)

var bucketDrafts = []byte("drafts")

// LocalStore persists draft records in a bbolt file on the device.
type LocalStore struct {
	db *bbolt.DB
}

// OpenLocalStore opens (or creates) the bbolt file backing the local store.
func OpenLocalStore(path string) (*LocalStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("drafts: open local store: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, bucketErr := tx.CreateBucketIfNotExists(bucketDrafts)
		return bucketErr
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("drafts: init local store bucket: %w", err)
	}
	return &LocalStore{db: db}, nil
}

// Close releases the underlying database file.
func (store *LocalStore) Close() error {
	if store.db == nil {
		return nil
	}
	return store.db.Close()
}

// Get loads one draft record by document id.
func (store *LocalStore) Get(_ context.Context, id DocumentID) (Draft, error) {
	var record Draft
	err := store.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketDrafts).Get([]byte(id.String()))
		if raw == nil {
			return ErrDraftNotFound
		}
		return json.Unmarshal(raw, &record)
	})
	if err != nil {
		return Draft{}, err
	}
	return record, nil
}

// Set writes the full record in one transaction.
func (store *LocalStore) Set(_ context.Context, record Draft) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("drafts: encode local record: %w", err)
	}
	return store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDrafts).Put([]byte(record.DocumentID), raw)
	})
}

// Delete removes a record; deleting an unknown id is a no-op.
func (store *LocalStore) Delete(_ context.Context, id DocumentID) error {
	return store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDrafts).Delete([]byte(id.String()))
	})
}

// List returns the author's records, newest updated first.
func (store *LocalStore) List(_ context.Context, author Author) ([]Draft, error) {
	var records []Draft
	err := store.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDrafts).ForEach(func(_, raw []byte) error {
			var record Draft
			if err := json.Unmarshal(raw, &record); err != nil {
				return err
			}
			if record.Author == author.String() {
				records = append(records, record)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAtSeconds > records[j].UpdatedAtSeconds
	})
	return records, nil
}
