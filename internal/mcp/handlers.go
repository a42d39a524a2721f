package mcp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/auth"
	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/service"
)

// RegisterRoutes mounts the MCP endpoints. The group must run
// auth.AuthMiddleware.
func (s *MCPServer) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tools", s.handleListTools)
	router.POST("/tools/call", s.handleExecuteTool)
	router.GET("", s.handleMCPInfo)
}

func (s *MCPServer) handleMCPInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Team Collab MCP Server",
		"version":     "1.0.0",
		"description": "Task rollups, milestone progress and conversations for agents",
		"capabilities": gin.H{
			"tools": len(s.ListTools()),
		},
	})
}

func (s *MCPServer) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools": s.ListTools(),
	})
}

func (s *MCPServer) handleExecuteTool(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var request struct {
		Name      string                 `json:"name" binding:"required"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	args, err := json.Marshal(request.Arguments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid arguments",
		})
		return
	}

	result, err := s.ExecuteTool(c.Request.Context(), user, ToolCall{Name: request.Name, Arguments: args})
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   err.Error(),
			"isError": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, conversation.ErrPermissionDenied), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrNotFound), errors.Is(err, ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, conversation.ErrUnknownConversation),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrMissingRequired),
		errors.Is(err, service.ErrEmptyBlocker),
		errors.Is(err, service.ErrInvalidTask),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidConversation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
