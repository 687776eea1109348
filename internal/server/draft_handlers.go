package server

import (
	"errors"
	"net/http"

	"github.com/fountain-ink/fountain-backend/internal/collect"
	"github.com/fountain-ink/fountain-backend/internal/drafts"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createDraftPayload struct {
	DocumentID          string             `json:"document_id"`
	SeedContent         drafts.ContentTree `json:"seed_content"`
	ForkFromPublishedID string             `json:"fork_from_published_id"`
}

func (h *httpHandler) handleCreateDraft(c *gin.Context) {
	author, mode, ok := h.callerIdentity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_identity"})
		return
	}

	var request createDraftPayload
	if err := c.ShouldBindJSON(&request); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	documentID, err := h.drafts.CreateDraft(c.Request.Context(), drafts.CreateDraftConfig{
		DocumentID:          request.DocumentID,
		Author:              author,
		Mode:                mode,
		SeedContent:         request.SeedContent,
		ForkFromPublishedID: request.ForkFromPublishedID,
	})
	if err != nil {
		var serviceErr *drafts.ServiceError
		if errors.As(err, &serviceErr) {
			if errors.Is(err, drafts.ErrDraftExists) {
				c.JSON(http.StatusConflict, gin.H{"error": serviceErr.Code()})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": serviceErr.Code()})
			return
		}
		h.logger.Error("failed to create draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	record, err := h.drafts.GetDraft(c.Request.Context(), documentID)
	if err != nil {
		h.logger.Error("failed to load created draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft": record})
}

func (h *httpHandler) handleListDrafts(c *gin.Context) {
	author, mode, ok := h.callerIdentity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_identity"})
		return
	}
	records, err := h.drafts.ListDrafts(c.Request.Context(), author, mode)
	if err != nil {
		h.logger.Error("failed to list drafts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": records})
}

func (h *httpHandler) handleGetDraft(c *gin.Context) {
	record, ok := h.loadOwnedDraft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": record})
}

type updateDraftPayload struct {
	Title         *string                      `json:"title"`
	Subtitle      *string                      `json:"subtitle"`
	CoverURL      *string                      `json:"cover_url"`
	Slug          *string                      `json:"slug"`
	Tags          *[]string                    `json:"tags"`
	ContentStream *string                      `json:"content_stream"`
	Collecting    *collect.CollectingSettings  `json:"collecting_settings"`
	Distribution  *drafts.DistributionSettings `json:"distribution_settings"`
	PublishedID   *string                      `json:"published_id"`
}

func (h *httpHandler) handleUpdateDraft(c *gin.Context) {
	record, ok := h.loadOwnedDraft(c)
	if !ok {
		return
	}

	var request updateDraftPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	updated, err := h.drafts.UpdateDraft(c.Request.Context(), drafts.DocumentID(record.DocumentID), drafts.DraftPatch{
		Title:            request.Title,
		Subtitle:         request.Subtitle,
		CoverURL:         request.CoverURL,
		Slug:             request.Slug,
		Tags:             request.Tags,
		ContentStreamB64: request.ContentStream,
		Collecting:       request.Collecting,
		Distribution:     request.Distribution,
		PublishedID:      request.PublishedID,
	})
	if err != nil {
		if errors.Is(err, drafts.ErrDraftNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		var serviceErr *drafts.ServiceError
		if errors.As(err, &serviceErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": serviceErr.Code()})
			return
		}
		h.logger.Error("failed to update draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": updated})
}

type applyContentPayload struct {
	Ops []drafts.Op `json:"ops"`
}

func (h *httpHandler) handleApplyContent(c *gin.Context) {
	record, ok := h.loadOwnedDraft(c)
	if !ok {
		return
	}

	var request applyContentPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Ops) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	updated, err := h.drafts.ApplyContentOps(c.Request.Context(), drafts.DocumentID(record.DocumentID), request.Ops)
	if err != nil {
		if errors.Is(err, drafts.ErrInvalidOp) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ops"})
			return
		}
		h.logger.Error("failed to apply content ops", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "content_update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": updated})
}

func (h *httpHandler) handleDeleteDraft(c *gin.Context) {
	record, ok := h.loadOwnedDraft(c)
	if !ok {
		return
	}
	if err := h.drafts.DeleteDraft(c.Request.Context(), drafts.DocumentID(record.DocumentID)); err != nil {
		h.logger.Error("failed to delete draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// loadOwnedDraft fetches the draft named in the path and enforces that the
// caller owns it. Replies with the proper status and returns ok=false when
// the request cannot proceed.
func (h *httpHandler) loadOwnedDraft(c *gin.Context) (drafts.Draft, bool) {
	author, _, ok := h.callerIdentity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_identity"})
		return drafts.Draft{}, false
	}
	documentID, err := drafts.NewDocumentID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_document_id"})
		return drafts.Draft{}, false
	}
	record, err := h.drafts.GetDraft(c.Request.Context(), documentID)
	if errors.Is(err, drafts.ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return drafts.Draft{}, false
	}
	if err != nil {
		h.logger.Error("failed to load draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load_failed"})
		return drafts.Draft{}, false
	}
	if record.Author != author.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return drafts.Draft{}, false
	}
	return record, true
}
