package server

import (
	"net/http"

	"github.com/fountain-ink/fountain-backend/internal/publish"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type publishTargetPayload struct {
	Address       string `json:"address"`
	OwnerAddress  string `json:"owner_address"`
	MailingListID string `json:"mailing_list_id"`
}

type publishRequestPayload struct {
	TargetBlog *publishTargetPayload `json:"target_blog"`
}

type publishResponsePayload struct {
	OK             bool   `json:"ok"`
	PostSlug       string `json:"post_slug,omitempty"`
	AuthorUsername string `json:"author_username,omitempty"`
	FailureStage   string `json:"failure_stage,omitempty"`
}

func (h *httpHandler) handlePublish(c *gin.Context) {
	claims, authenticated := h.sessionClaims(c)
	if !authenticated {
		c.JSON(http.StatusUnauthorized, publishResponsePayload{FailureStage: string(publish.StageAuth)})
		return
	}

	record, ok := h.loadOwnedDraft(c)
	if !ok {
		return
	}

	var request publishRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if !h.guard.tryAcquire(record.DocumentID) {
		c.JSON(http.StatusConflict, gin.H{"error": "publish_in_progress"})
		return
	}
	defer h.guard.release(record.DocumentID)

	signer, err := h.signers(claims.Address)
	if err != nil {
		h.logger.Error("failed to build signer", zap.Error(err))
		c.JSON(http.StatusUnauthorized, publishResponsePayload{FailureStage: string(publish.StageAuth)})
		return
	}

	publishRequest := publish.Request{
		Draft:    record,
		Signer:   signer,
		Username: claims.Username,
	}
	if request.TargetBlog != nil {
		publishRequest.TargetBlog = &publish.BlogTarget{
			Address:       request.TargetBlog.Address,
			OwnerAddress:  request.TargetBlog.OwnerAddress,
			MailingListID: request.TargetBlog.MailingListID,
		}
	}

	result := h.producer.Publish(c.Request.Context(), publishRequest)
	if !result.OK {
		c.JSON(statusForStage(result.FailureStage), publishResponsePayload{
			FailureStage: string(result.FailureStage),
		})
		return
	}
	c.JSON(http.StatusOK, publishResponsePayload{
		OK:             true,
		PostSlug:       result.PostSlug,
		AuthorUsername: result.AuthorUsername,
	})
}

// statusForStage maps pipeline failure stages to transport codes. Stages at
// or after submission use 502 so clients can tell "our fault" from
// "downstream ambiguity".
func statusForStage(stage publish.Stage) int {
	switch stage {
	case publish.StageAuth:
		return http.StatusUnauthorized
	case publish.StageValidation:
		return http.StatusUnprocessableEntity
	case publish.StageUpload, publish.StageFeedResolution:
		return http.StatusBadGateway
	case publish.StageSubmission, publish.StageIndexing, publish.StageResolution:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
