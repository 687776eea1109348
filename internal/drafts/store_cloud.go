package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CloudStore persists draft records in the server database.
type CloudStore struct {
	db *gorm.DB
}

// NewCloudStore wraps a gorm handle already migrated for DraftRow.
func NewCloudStore(db *gorm.DB) (*CloudStore, error) {
	if db == nil {
		return nil, errors.New("drafts: database handle is required")
	}
	return &CloudStore{db: db}, nil
}

// Get loads one draft record by document id.
func (store *CloudStore) Get(ctx context.Context, id DocumentID) (Draft, error) {
	var row DraftRow
	err := store.db.WithContext(ctx).
		Where("document_id = ?", id.String()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, err
	}
	var record Draft
	if err := json.Unmarshal([]byte(row.RecordJSON), &record); err != nil {
		return Draft{}, fmt.Errorf("drafts: decode cloud record: %w", err)
	}
	return record, nil
}

// Set writes the full record; the row either replaces entirely or not at all.
func (store *CloudStore) Set(ctx context.Context, record Draft) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("drafts: encode cloud record: %w", err)
	}
	row := DraftRow{
		Author:           record.Author,
		DocumentID:       record.DocumentID,
		RecordJSON:       string(raw),
		CreatedAtSeconds: record.CreatedAtSeconds,
		UpdatedAtSeconds: record.UpdatedAtSeconds,
	}
	return store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(&row).Error
	})
}

// Delete removes a record; deleting an unknown id is a no-op.
func (store *CloudStore) Delete(ctx context.Context, id DocumentID) error {
	return store.db.WithContext(ctx).
		Where("document_id = ?", id.String()).
		Delete(&DraftRow{}).Error
}

// List returns the author's records, newest updated first.
func (store *CloudStore) List(ctx context.Context, author Author) ([]Draft, error) {
	var rows []DraftRow
	if err := store.db.WithContext(ctx).
		Where("author = ?", author.String()).
		Order("updated_at_s DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]Draft, 0, len(rows))
	for _, row := range rows {
		var record Draft
		if err := json.Unmarshal([]byte(row.RecordJSON), &record); err != nil {
			return nil, fmt.Errorf("drafts: decode cloud record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
