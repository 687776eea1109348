package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fountain-ink/fountain-backend/internal/auth"
	"github.com/fountain-ink/fountain-backend/internal/drafts"
	"github.com/fountain-ink/fountain-backend/internal/publish"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionContextKey = "fountain_session"
	deviceHeader      = "X-Fountain-Device"
)

var (
	errMissingSessionManager = errors.New("session manager dependency required")
	errMissingDraftService   = errors.New("draft service dependency required")
	errMissingPublisher      = errors.New("publisher dependency required")
	errMissingSignerFactory  = errors.New("signer factory dependency required")
)

// SessionManager issues and validates session tokens.
type SessionManager interface {
	IssueSessionToken(address, username string) (string, int64, error)
	ValidateToken(token string) (auth.SessionClaims, error)
}

// Publisher runs one publish attempt.
type Publisher interface {
	Publish(ctx context.Context, req publish.Request) publish.Result
}

// SignerFactory builds a signing collaborator for an authenticated address.
type SignerFactory func(address string) (publish.Signer, error)

// Dependencies wires the HTTP surface.
type Dependencies struct {
	Sessions      SessionManager
	DraftsService *drafts.Service
	Publisher     Publisher
	Signers       SignerFactory
	Logger        *zap.Logger
}

// NewHTTPHandler builds the gin router serving the draft and publish surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}
	if deps.DraftsService == nil {
		return nil, errMissingDraftService
	}
	if deps.Publisher == nil {
		return nil, errMissingPublisher
	}
	if deps.Signers == nil {
		return nil, errMissingSignerFactory
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", deviceHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions: deps.Sessions,
		drafts:   deps.DraftsService,
		producer: deps.Publisher,
		signers:  deps.Signers,
		guard:    newPublishGuard(),
		logger:   logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.POST("/auth/session", handler.handleCreateSession)

	draftRoutes := router.Group("/drafts")
	draftRoutes.Use(handler.resolveSession)
	draftRoutes.POST("", handler.handleCreateDraft)
	draftRoutes.GET("", handler.handleListDrafts)
	draftRoutes.GET("/:id", handler.handleGetDraft)
	draftRoutes.PATCH("/:id", handler.handleUpdateDraft)
	draftRoutes.DELETE("/:id", handler.handleDeleteDraft)
	draftRoutes.POST("/:id/content", handler.handleApplyContent)
	draftRoutes.POST("/:id/publish", handler.handlePublish)

	return router, nil
}

type httpHandler struct {
	sessions SessionManager
	drafts   *drafts.Service
	producer Publisher
	signers  SignerFactory
	guard    *publishGuard
	logger   *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type sessionRequestPayload struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleCreateSession(c *gin.Context) {
	var request sessionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if !common.IsHexAddress(request.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_address"})
		return
	}

	address := common.HexToAddress(request.Address).Hex()
	token, expiresIn, err := h.sessions.IssueSessionToken(address, request.Username)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

// resolveSession validates a bearer token when present. Guests pass through
// without claims; draft routes fall back to the device header for identity.
func (h *httpHandler) resolveSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.Next()
		return
	}
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	claims, err := h.sessions.ValidateToken(token)
	if err != nil {
		h.logger.Warn("session token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(sessionContextKey, claims)
	c.Next()
}

func (h *httpHandler) sessionClaims(c *gin.Context) (auth.SessionClaims, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return auth.SessionClaims{}, false
	}
	claims, ok := value.(auth.SessionClaims)
	return claims, ok
}

// callerIdentity resolves who owns the drafts touched by this request: the
// session address for authors, the device key for guests.
func (h *httpHandler) callerIdentity(c *gin.Context) (drafts.Author, drafts.AuthorshipMode, bool) {
	if claims, ok := h.sessionClaims(c); ok {
		author, err := drafts.NewAuthor(claims.Address)
		if err != nil {
			return "", "", false
		}
		return author, drafts.AuthorshipModeAuthor, true
	}
	author, err := drafts.NewAuthor(c.GetHeader(deviceHeader))
	if err != nil {
		return "", "", false
	}
	return author, drafts.AuthorshipModeGuest, true
}
