package drafts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fountain-ink/fountain-backend/internal/collect"
)

const (
	maxIdentifierLength = 190
	maxTagCount         = 5
	maxTagLength        = 100
)

var (
	// ErrInvalidDocumentID indicates that a document identifier is empty or exceeds storage bounds.
	ErrInvalidDocumentID = errors.New("drafts: invalid document id")
	// ErrInvalidAuthor indicates that an author identifier is empty or exceeds storage bounds.
	ErrInvalidAuthor = errors.New("drafts: invalid author")
	// ErrInvalidTags indicates that a tag list violates count or shape bounds.
	ErrInvalidTags = errors.New("drafts: invalid tags")
	// ErrInvalidAuthorshipMode indicates an unknown authorship mode.
	ErrInvalidAuthorshipMode = errors.New("drafts: invalid authorship mode")
)

// DocumentID represents a validated draft document identifier.
type DocumentID string

// NewDocumentID validates raw input and returns a DocumentID.
func NewDocumentID(rawInput string) (DocumentID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDocumentID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDocumentID, maxIdentifierLength)
	}
	return DocumentID(trimmed), nil
}

// String returns the underlying string identifier.
func (id DocumentID) String() string {
	return string(id)
}

// Author represents a validated draft owner, either a wallet address for
// authenticated authors or a device key for guest sessions.
type Author string

// NewAuthor validates raw input and returns an Author.
func NewAuthor(rawInput string) (Author, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAuthor)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidAuthor, maxIdentifierLength)
	}
	return Author(trimmed), nil
}

// String returns the underlying author identifier.
func (author Author) String() string {
	return string(author)
}

// AuthorshipMode determines which store owns a newly created draft.
type AuthorshipMode string

const (
	// AuthorshipModeGuest keeps drafts on the local device store only.
	AuthorshipModeGuest AuthorshipMode = "guest"
	// AuthorshipModeAuthor persists drafts to the cloud store.
	AuthorshipModeAuthor AuthorshipMode = "author"
)

// ParseAuthorshipMode validates a raw authorship mode value.
func ParseAuthorshipMode(rawInput string) (AuthorshipMode, error) {
	switch strings.ToLower(strings.TrimSpace(rawInput)) {
	case string(AuthorshipModeGuest):
		return AuthorshipModeGuest, nil
	case string(AuthorshipModeAuthor), "":
		return AuthorshipModeAuthor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAuthorshipMode, rawInput)
	}
}

// NewTags validates a tag list: at most five tags, each non-empty after trimming.
func NewTags(rawTags []string) ([]string, error) {
	if len(rawTags) > maxTagCount {
		return nil, fmt.Errorf("%w: more than %d tags", ErrInvalidTags, maxTagCount)
	}
	tags := make([]string, 0, len(rawTags))
	for _, raw := range rawTags {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: empty tag", ErrInvalidTags)
		}
		if len(trimmed) > maxTagLength {
			return nil, fmt.Errorf("%w: tag exceeds %d characters", ErrInvalidTags, maxTagLength)
		}
		tags = append(tags, trimmed)
	}
	return tags, nil
}

// DistributionSettings configures where a published post lands and whether
// subscribers are notified.
type DistributionSettings struct {
	TargetBlogAddress string `json:"targetBlogAddress,omitempty"`
	SendNewsletter    bool   `json:"sendNewsletter"`
}

// Draft is the persisted shape of one unpublished document. ContentJSON is a
// read cache derived from ContentStreamB64; both are always written together.
type Draft struct {
	DocumentID       string                     `json:"documentId"`
	Author           string                     `json:"author"`
	IsLocal          bool                       `json:"isLocal"`
	Title            string                     `json:"title,omitempty"`
	Subtitle         string                     `json:"subtitle,omitempty"`
	CoverURL         string                     `json:"coverUrl,omitempty"`
	Slug             string                     `json:"slug,omitempty"`
	Tags             []string                   `json:"tags,omitempty"`
	ContentJSON      ContentTree                `json:"contentJson"`
	ContentStreamB64 string                     `json:"contentStream"`
	Collecting       collect.CollectingSettings `json:"collectingSettings"`
	Distribution     DistributionSettings       `json:"distributionSettings"`
	PublishedID      string                     `json:"publishedId,omitempty"`
	CreatedAtSeconds int64                      `json:"createdAt"`
	UpdatedAtSeconds int64                      `json:"updatedAt"`
}

// DraftRow is the cloud-store persistence model. The full record travels as a
// JSON blob so local and cloud rows share one serialized shape.
type DraftRow struct {
	Author           string `gorm:"column:author;size:190;not null;index:idx_drafts_author_updated,priority:1"`
	DocumentID       string `gorm:"column:document_id;primaryKey;size:190;not null"`
	RecordJSON       string `gorm:"column:record_json;type:text;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null;index:idx_drafts_author_updated,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (DraftRow) TableName() string {
	return "drafts"
}
