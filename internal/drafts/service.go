package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/collect"
	"go.uber.org/zap"
)

var (
	errMissingLocalStore = errors.New("local store is required")
	errMissingCloudStore = errors.New("cloud store is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries an operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew      = "drafts.service.new"
	opCreateDraft     = "drafts.create"
	opGetDraft        = "drafts.get"
	opUpdateDraft     = "drafts.update"
	opApplyContentOps = "drafts.apply_content_ops"
	opDeleteDraft     = "drafts.delete"
	opListDrafts      = "drafts.list"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues document identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the draft service.
type ServiceConfig struct {
	Local      Store
	Cloud      Store
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service reconciles exactly one authoritative copy of each draft between the
// local device store and the cloud store.
type Service struct {
	local      Store
	cloud      Store
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Local == nil {
		return nil, newServiceError(opServiceNew, "missing_local_store", errMissingLocalStore)
	}
	if cfg.Cloud == nil {
		return nil, newServiceError(opServiceNew, "missing_cloud_store", errMissingCloudStore)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		local:      cfg.Local,
		cloud:      cfg.Cloud,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CreateDraftConfig describes the inputs for a new draft.
type CreateDraftConfig struct {
	DocumentID          string
	Author              Author
	Mode                AuthorshipMode
	SeedContent         ContentTree
	ForkFromPublishedID string
}

// CreateDraft builds the CRDT log by replaying the seed content (or the
// mode-dependent skeleton), persists the new record through the store that
// owns the authorship mode, and returns the document id.
func (s *Service) CreateDraft(ctx context.Context, cfg CreateDraftConfig) (DocumentID, error) {
	documentID := cfg.DocumentID
	if documentID == "" {
		generated, err := s.idProvider.NewID()
		if err != nil {
			s.logError(opCreateDraft, "id_generation_failed", err)
			return "", newServiceError(opCreateDraft, "id_generation_failed", err)
		}
		documentID = generated
	}
	id, err := NewDocumentID(documentID)
	if err != nil {
		return "", newServiceError(opCreateDraft, "invalid_document_id", err)
	}
	if cfg.Author == "" {
		return "", newServiceError(opCreateDraft, "missing_author", ErrInvalidAuthor)
	}

	store, isLocal := s.storeForMode(cfg.Mode)
	if _, getErr := store.Get(ctx, id); getErr == nil {
		return "", newServiceError(opCreateDraft, "document_exists", fmt.Errorf("%w: %s", ErrDraftExists, id))
	} else if !errors.Is(getErr, ErrDraftNotFound) {
		s.logError(opCreateDraft, "store_read_failed", getErr, zap.String("document_id", id.String()))
		return "", newServiceError(opCreateDraft, "store_read_failed", getErr)
	}

	seed := cfg.SeedContent
	if len(seed) == 0 {
		seed = defaultSkeleton(cfg.Mode)
	}
	log := SeedLog(seed, cfg.Author.String())
	streamB64, err := EncodeLog(log)
	if err != nil {
		s.logError(opCreateDraft, "stream_encode_failed", err, zap.String("document_id", id.String()))
		return "", newServiceError(opCreateDraft, "stream_encode_failed", err)
	}

	now := s.clock().UTC().Unix()
	record := Draft{
		DocumentID:       id.String(),
		Author:           cfg.Author.String(),
		IsLocal:          isLocal,
		ContentJSON:      log.Replay(),
		ContentStreamB64: streamB64,
		PublishedID:      cfg.ForkFromPublishedID,
		CreatedAtSeconds: now,
		UpdatedAtSeconds: now,
	}
	if err := store.Set(ctx, record); err != nil {
		s.logError(opCreateDraft, "store_write_failed", err, zap.String("document_id", id.String()))
		return "", newServiceError(opCreateDraft, "store_write_failed", err)
	}
	return id, nil
}

// GetDraft looks up the local store first, then the cloud store. The two are
// never merged at read time; a document id is owned by one store.
func (s *Service) GetDraft(ctx context.Context, id DocumentID) (Draft, error) {
	record, err := s.local.Get(ctx, id)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrDraftNotFound) {
		s.logError(opGetDraft, "local_read_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opGetDraft, "local_read_failed", err)
	}
	record, err = s.cloud.Get(ctx, id)
	if errors.Is(err, ErrDraftNotFound) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		s.logError(opGetDraft, "cloud_read_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opGetDraft, "cloud_read_failed", err)
	}
	return record, nil
}

// DraftPatch carries the optional fields of a shallow update. A nil field
// leaves the stored value untouched.
type DraftPatch struct {
	Title            *string
	Subtitle         *string
	CoverURL         *string
	Slug             *string
	Tags             *[]string
	ContentStreamB64 *string
	Collecting       *collect.CollectingSettings
	Distribution     *DistributionSettings
	PublishedID      *string
}

// UpdateDraft shallow-merges the patch into the stored record and rewrites it
// through the owning store. Either the whole merged record persists or the
// prior record remains intact. When the patch carries a content stream the
// tree is rederived from the log, never taken from the caller.
func (s *Service) UpdateDraft(ctx context.Context, id DocumentID, patch DraftPatch) (Draft, error) {
	record, store, err := s.getOwned(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return Draft{}, ErrDraftNotFound
		}
		s.logError(opUpdateDraft, "store_read_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opUpdateDraft, "store_read_failed", err)
	}

	if patch.Title != nil {
		record.Title = *patch.Title
	}
	if patch.Subtitle != nil {
		record.Subtitle = *patch.Subtitle
	}
	if patch.CoverURL != nil {
		record.CoverURL = *patch.CoverURL
	}
	if patch.Slug != nil {
		record.Slug = *patch.Slug
	}
	if patch.Tags != nil {
		tags, tagsErr := NewTags(*patch.Tags)
		if tagsErr != nil {
			return Draft{}, newServiceError(opUpdateDraft, "invalid_tags", tagsErr)
		}
		record.Tags = tags
	}
	if patch.Collecting != nil {
		if settingsErr := patch.Collecting.ValidateBounds(); settingsErr != nil {
			return Draft{}, newServiceError(opUpdateDraft, "invalid_collecting_settings", settingsErr)
		}
		record.Collecting = *patch.Collecting
	}
	if patch.Distribution != nil {
		record.Distribution = *patch.Distribution
	}
	if patch.PublishedID != nil {
		record.PublishedID = *patch.PublishedID
	}
	if patch.ContentStreamB64 != nil {
		log, decodeErr := DecodeLog(*patch.ContentStreamB64)
		if decodeErr != nil {
			return Draft{}, newServiceError(opUpdateDraft, "invalid_content_stream", decodeErr)
		}
		record.ContentStreamB64 = *patch.ContentStreamB64
		record.ContentJSON = log.Replay()
	}

	record.UpdatedAtSeconds = s.clock().UTC().Unix()
	if err := store.Set(ctx, record); err != nil {
		s.logError(opUpdateDraft, "store_write_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opUpdateDraft, "store_write_failed", err)
	}
	return record, nil
}

// ApplyContentOps appends editor operations to the draft's CRDT log, replays
// the log into the derived tree, and persists both fields together.
func (s *Service) ApplyContentOps(ctx context.Context, id DocumentID, ops []Op) (Draft, error) {
	record, store, err := s.getOwned(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return Draft{}, ErrDraftNotFound
		}
		s.logError(opApplyContentOps, "store_read_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opApplyContentOps, "store_read_failed", err)
	}

	log := Log{}
	if record.ContentStreamB64 != "" {
		log, err = DecodeLog(record.ContentStreamB64)
		if err != nil {
			s.logError(opApplyContentOps, "stream_decode_failed", err, zap.String("document_id", id.String()))
			return Draft{}, newServiceError(opApplyContentOps, "stream_decode_failed", err)
		}
	}
	merged, err := log.Append(ops...)
	if err != nil {
		return Draft{}, newServiceError(opApplyContentOps, "invalid_ops", err)
	}
	streamB64, err := EncodeLog(merged)
	if err != nil {
		s.logError(opApplyContentOps, "stream_encode_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opApplyContentOps, "stream_encode_failed", err)
	}

	record.ContentStreamB64 = streamB64
	record.ContentJSON = merged.Replay()
	record.UpdatedAtSeconds = s.clock().UTC().Unix()
	if err := store.Set(ctx, record); err != nil {
		s.logError(opApplyContentOps, "store_write_failed", err, zap.String("document_id", id.String()))
		return Draft{}, newServiceError(opApplyContentOps, "store_write_failed", err)
	}
	return record, nil
}

// DeleteDraft removes the record from its owning store. Deleting an id that
// does not exist anywhere is not an error, and a deleted draft is never
// resurrected by a late write through this service.
func (s *Service) DeleteDraft(ctx context.Context, id DocumentID) error {
	record, store, err := s.getOwned(ctx, id)
	if errors.Is(err, ErrDraftNotFound) {
		return nil
	}
	if err != nil {
		s.logError(opDeleteDraft, "store_read_failed", err, zap.String("document_id", id.String()))
		return newServiceError(opDeleteDraft, "store_read_failed", err)
	}
	if err := store.Delete(ctx, DocumentID(record.DocumentID)); err != nil {
		s.logError(opDeleteDraft, "store_delete_failed", err, zap.String("document_id", id.String()))
		return newServiceError(opDeleteDraft, "store_delete_failed", err)
	}
	return nil
}

// ListDrafts enumerates an author's drafts from the store owning the mode,
// newest updated first.
func (s *Service) ListDrafts(ctx context.Context, author Author, mode AuthorshipMode) ([]Draft, error) {
	if author == "" {
		return nil, newServiceError(opListDrafts, "missing_author", ErrInvalidAuthor)
	}
	store, _ := s.storeForMode(mode)
	records, err := store.List(ctx, author)
	if err != nil {
		s.logError(opListDrafts, "query_failed", err, zap.String("author", author.String()))
		return nil, newServiceError(opListDrafts, "query_failed", err)
	}
	return records, nil
}

func (s *Service) storeForMode(mode AuthorshipMode) (Store, bool) {
	if mode == AuthorshipModeGuest {
		return s.local, true
	}
	return s.cloud, false
}

func (s *Service) getOwned(ctx context.Context, id DocumentID) (Draft, Store, error) {
	record, err := s.local.Get(ctx, id)
	if err == nil {
		return record, s.local, nil
	}
	if !errors.Is(err, ErrDraftNotFound) {
		return Draft{}, nil, err
	}
	record, err = s.cloud.Get(ctx, id)
	if err != nil {
		return Draft{}, nil, err
	}
	return record, s.cloud, nil
}

func defaultSkeleton(mode AuthorshipMode) ContentTree {
	if mode == AuthorshipModeGuest {
		return ContentTree{{Type: BlockTypeParagraph}}
	}
	return ContentTree{
		{Type: BlockTypeTitle},
		{Type: BlockTypeParagraph},
	}
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("drafts service error", attrs...)
}
