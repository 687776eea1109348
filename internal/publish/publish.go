// Package publish sequences the irreversible path from a draft to an
// on-chain post: metadata build, content upload, transaction submission,
// indexing wait, result resolution, and best-effort housekeeping.
package publish

import (
	"context"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/drafts"
)

// Stage identifies where a publish attempt stopped.
type Stage string

const (
	// StageAuth fails when no authenticated signing session is present.
	StageAuth Stage = "auth"
	// StageValidation fails when the draft's collecting settings are invalid.
	StageValidation Stage = "validation"
	// StageUpload fails when content storage rejects the metadata.
	StageUpload Stage = "upload"
	// StageFeedResolution fails when a shared blog's feed cannot be resolved.
	StageFeedResolution Stage = "feed_resolution"
	// StageSubmission fails before the transaction was dispatched; retry is safe.
	StageSubmission Stage = "submission"
	// StageIndexing fails after dispatch; chain state is ambiguous, do not
	// blindly retry.
	StageIndexing Stage = "indexing"
	// StageResolution fails when the mined post cannot be fetched back.
	StageResolution Stage = "resolution"
)

// Result is the outcome of one publish attempt. Overall success is defined
// solely by the on-chain post existing; side-effect failures never flip OK.
type Result struct {
	OK             bool
	PostSlug       string
	AuthorUsername string
	FailureStage   Stage
	Err            error
}

func failed(stage Stage, err error) Result {
	return Result{FailureStage: stage, Err: err}
}

// Operation is the chain-level action descriptor submitted to the ledger.
type Operation struct {
	Kind       string         `json:"kind"`
	FeedID     string         `json:"feedId,omitempty"`
	ContentURI string         `json:"contentUri"`
	Collect    *CollectAction `json:"collect,omitempty"`
}

// CollectAction translates collecting settings into chain terms.
type CollectAction struct {
	Amount          string       `json:"amount,omitempty"`
	Currency        string       `json:"currency,omitempty"`
	ReferralPercent int          `json:"referralPercent,omitempty"`
	Splits          []SplitEntry `json:"splits,omitempty"`
	CollectLimit    int          `json:"collectLimit,omitempty"`
	EndsAt          *time.Time   `json:"endsAt,omitempty"`
}

// SplitEntry is one revenue-split leg of a collect action.
type SplitEntry struct {
	Address string `json:"address"`
	Percent string `json:"percent"`
}

// Post is the on-chain object resolved after indexing.
type Post struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	AuthorUsername string `json:"authorUsername"`
}

// Signer produces a signature for an unsigned operation. It is the wallet
// collaborator; the orchestrator never holds key material.
type Signer interface {
	Address() string
	Sign(ctx context.Context, op Operation) ([]byte, error)
}

// ContentStorage uploads content-addressed metadata and returns its URI.
type ContentStorage interface {
	UploadJSON(ctx context.Context, payload any) (string, error)
}

// Ledger covers transaction submission, inclusion, and lookups. The ledger
// owns its own timeout and retry policy; the orchestrator imposes none.
type Ledger interface {
	Submit(ctx context.Context, op Operation, signer Signer) (string, error)
	WaitForTransaction(ctx context.Context, txHash string) error
	FetchPostByTxHash(ctx context.Context, txHash string) (*Post, error)
	ResolveFeed(ctx context.Context, blogAddress string) (string, error)
}

// Campaign starts a best-effort email notification for a mailing list.
type Campaign interface {
	CreateAndStart(ctx context.Context, listID string, meta PostMetadata) (bool, error)
}

// DraftStore is the slice of the draft service the orchestrator needs for
// post-publish cleanup.
type DraftStore interface {
	DeleteDraft(ctx context.Context, id drafts.DocumentID) error
}

// BlogTarget describes the blog a post is published into.
type BlogTarget struct {
	Address       string
	OwnerAddress  string
	MailingListID string
}

// Request carries one publish attempt. Signer nil means no signing session.
type Request struct {
	Draft      drafts.Draft
	Signer     Signer
	Username   string
	TargetBlog *BlogTarget
}
