package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/drafts"
	"go.uber.org/zap"
)

const operationKindPost = "post"

const (
	opPublish          = "publish.run"
	reasonNoSession    = "no_signing_session"
	reasonSettings     = "collecting_settings_invalid"
	reasonMetadata     = "metadata_build_failed"
	reasonUpload       = "upload_failed"
	reasonFeed         = "feed_resolution_failed"
	reasonSubmit       = "submission_failed"
	reasonIndexing     = "indexing_failed"
	reasonResolution   = "post_resolution_failed"
	reasonCampaign     = "campaign_failed"
	reasonDraftCleanup = "draft_cleanup_failed"
)

var (
	errMissingStorage    = errors.New("content storage collaborator is required")
	errMissingLedger     = errors.New("ledger collaborator is required")
	errMissingDraftStore = errors.New("draft store collaborator is required")
	errNoSigningSession  = errors.New("publish: authenticated signing session required")
	errPostNotResolved   = errors.New("publish: transaction succeeded but the post could not be resolved")
)

// OrchestratorConfig describes the collaborators of the publish pipeline.
// Campaign may be nil when no mailing provider is configured.
type OrchestratorConfig struct {
	Storage  ContentStorage
	Ledger   Ledger
	Campaign Campaign
	Drafts   DraftStore
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Orchestrator runs the strictly ordered publish stages. It never retries a
// stage on its own; every failure is terminal for the attempt and is reported
// with its stage so the caller can tell safe-to-retry from ambiguous.
type Orchestrator struct {
	storage  ContentStorage
	ledger   Ledger
	campaign Campaign
	drafts   DraftStore
	clock    func() time.Time
	logger   *zap.Logger
}

// NewOrchestrator validates the configuration and constructs an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Storage == nil {
		return nil, errMissingStorage
	}
	if cfg.Ledger == nil {
		return nil, errMissingLedger
	}
	if cfg.Drafts == nil {
		return nil, errMissingDraftStore
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		storage:  cfg.Storage,
		ledger:   cfg.Ledger,
		campaign: cfg.Campaign,
		drafts:   cfg.Drafts,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Publish runs one attempt end to end. Stages 1-7 are strictly sequential;
// the two housekeeping effects afterwards run concurrently, fail
// independently, and never affect the returned result.
func (o *Orchestrator) Publish(ctx context.Context, req Request) Result {
	documentID := req.Draft.DocumentID

	// Stage 1: an authenticated signing session must exist before anything
	// else; failing here has performed no side effects at all.
	if req.Signer == nil || strings.TrimSpace(req.Signer.Address()) == "" {
		o.logFailure(documentID, StageAuth, reasonNoSession, errNoSigningSession)
		return failed(StageAuth, errNoSigningSession)
	}

	// Monetization settings are checked before the metadata build so an
	// unbalanced split never reaches the chain.
	if err := req.Draft.Collecting.Validate(); err != nil {
		o.logFailure(documentID, StageValidation, reasonSettings, err)
		return failed(StageValidation, err)
	}

	// Stage 2: metadata build.
	metadata, err := BuildMetadata(req.Draft)
	if err != nil {
		o.logFailure(documentID, StageValidation, reasonMetadata, err)
		return failed(StageValidation, err)
	}

	// Stage 3: content upload. Nothing on-chain has happened yet, so a
	// failure needs no compensation.
	contentURI, err := o.storage.UploadJSON(ctx, metadata)
	if err != nil {
		o.logFailure(documentID, StageUpload, reasonUpload, err)
		return failed(StageUpload, err)
	}

	// Stage 4: resolve the target feed only when publishing into a shared
	// blog owned by someone else.
	feedID := ""
	if req.TargetBlog != nil && !strings.EqualFold(req.TargetBlog.OwnerAddress, req.Signer.Address()) {
		feedID, err = o.ledger.ResolveFeed(ctx, req.TargetBlog.Address)
		if err != nil {
			o.logFailure(documentID, StageFeedResolution, reasonFeed, err)
			return failed(StageFeedResolution, err)
		}
	}

	// Stage 5: collect action assembly.
	operation := Operation{
		Kind:       operationKindPost,
		FeedID:     feedID,
		ContentURI: contentURI,
		Collect:    BuildCollectAction(req.Draft.Collecting, o.clock()),
	}

	// Stage 6: sign, submit, and wait for inclusion. Submission failures are
	// pre-dispatch and safe to retry; once dispatched, an indexing failure
	// leaves chain state ambiguous and must not be retried blindly.
	txHash, err := o.ledger.Submit(ctx, operation, req.Signer)
	if err != nil {
		o.logFailure(documentID, StageSubmission, reasonSubmit, err)
		return failed(StageSubmission, err)
	}

	// The attempt stops being cancellable once the transaction is dispatched:
	// the inclusion wait, the post lookup, and the housekeeping below must
	// outlive the originating request.
	ctx = context.WithoutCancel(ctx)

	if err := o.ledger.WaitForTransaction(ctx, txHash); err != nil {
		o.logFailure(documentID, StageIndexing, reasonIndexing, err)
		return failed(StageIndexing, err)
	}

	// Stage 7: never claim success without confirming the post exists.
	post, err := o.ledger.FetchPostByTxHash(ctx, txHash)
	if err != nil {
		o.logFailure(documentID, StageResolution, reasonResolution, err)
		return failed(StageResolution, err)
	}
	if post == nil {
		o.logFailure(documentID, StageResolution, reasonResolution, errPostNotResolved)
		return failed(StageResolution, errPostNotResolved)
	}

	// Stage 8: best-effort housekeeping. Both effects run concurrently, each
	// is allowed to fail alone, and neither failure surfaces to the caller.
	o.runSideEffects(ctx, req, metadata)

	authorUsername := post.AuthorUsername
	if authorUsername == "" {
		authorUsername = req.Username
	}
	o.logger.Info("post published",
		zap.String("document_id", documentID),
		zap.String("tx_hash", txHash),
		zap.String("post_slug", post.Slug))
	return Result{
		OK:             true,
		PostSlug:       post.Slug,
		AuthorUsername: authorUsername,
	}
}

func (o *Orchestrator) runSideEffects(ctx context.Context, req Request, metadata PostMetadata) {
	var wg sync.WaitGroup

	if o.campaign != nil && req.TargetBlog != nil && req.TargetBlog.MailingListID != "" && req.Draft.Distribution.SendNewsletter {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.recoverSideEffect(req.Draft.DocumentID, reasonCampaign)
			ok, err := o.campaign.CreateAndStart(ctx, req.TargetBlog.MailingListID, metadata)
			if err != nil || !ok {
				o.logSideEffect(req.Draft.DocumentID, reasonCampaign, err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer o.recoverSideEffect(req.Draft.DocumentID, reasonDraftCleanup)
		if err := o.drafts.DeleteDraft(ctx, drafts.DocumentID(req.Draft.DocumentID)); err != nil {
			o.logSideEffect(req.Draft.DocumentID, reasonDraftCleanup, err)
		}
	}()

	wg.Wait()
}

func (o *Orchestrator) recoverSideEffect(documentID, reason string) {
	if recovered := recover(); recovered != nil {
		o.logSideEffect(documentID, reason, fmt.Errorf("panic: %v", recovered))
	}
}

func (o *Orchestrator) logSideEffect(documentID, reason string, err error) {
	attrs := []zap.Field{
		zap.String("operation", opPublish),
		zap.String("reason", reason),
		zap.String("document_id", documentID),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	o.logger.Warn("publish side effect failed", attrs...)
}

func (o *Orchestrator) logFailure(documentID string, stage Stage, reason string, err error) {
	o.logger.Error("publish attempt failed",
		zap.String("operation", opPublish),
		zap.String("reason", reason),
		zap.String("stage", string(stage)),
		zap.String("document_id", documentID),
		zap.Error(err))
}
