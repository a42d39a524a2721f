package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/auth"
	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/metrics"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/service"
	jwtauth "github.com/headless-pm/team-collab/pkg/auth"
)

type Handler struct {
	db            *database.Database
	conversations *conversation.Store
	tasks         *service.TaskService
	jwtManager    *jwtauth.JWTManager
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewHandler(
	db *database.Database,
	conversations *conversation.Store,
	tasks *service.TaskService,
	jwtManager *jwtauth.JWTManager,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:            db,
		conversations: conversations,
		tasks:         tasks,
		jwtManager:    jwtManager,
		metrics:       m,
		logger:        logger,
	}
}

func (h *Handler) currentUser(c *gin.Context) (models.User, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	}
	return user, ok
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Viewers cannot send messages"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidConversation),
		errors.Is(err, service.ErrInvalidTask),
		errors.Is(err, service.ErrEmptyBlocker),
		errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, conversation.ErrUnknownConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
