package drafts

import (
	"context"
	"errors"
)

// ErrDraftNotFound indicates that no record exists for the document id.
var ErrDraftNotFound = errors.New("drafts: draft not found")

// ErrDraftExists indicates that a record already exists for an explicitly
// requested document id.
var ErrDraftExists = errors.New("drafts: draft already exists")

// Store is the persistence contract shared by the local device store and the
// cloud store. Set replaces the whole record atomically; a failed Set leaves
// the prior record intact. Delete of an unknown id is not an error.
type Store interface {
	Get(ctx context.Context, id DocumentID) (Draft, error)
	Set(ctx context.Context, record Draft) error
	Delete(ctx context.Context, id DocumentID) error
	List(ctx context.Context, author Author) ([]Draft, error)
}
