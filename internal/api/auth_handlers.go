package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/auth"
	"github.com/headless-pm/team-collab/internal/capability"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/models"
	jwtauth "github.com/headless-pm/team-collab/pkg/auth"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SwitchRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string             `json:"access_token"`
	ExpiresIn    int                `json:"expires_in"`
	TokenType    string             `json:"token_type"`
	User         models.User        `json:"user"`
	Capabilities capability.Summary `json:"capabilities"`
	ActingFor    string             `json:"acting_for,omitempty"`
}

func (h *Handler) tokenResponse(token string, user models.User, actingFor string) TokenResponse {
	return TokenResponse{
		AccessToken:  token,
		ExpiresIn:    int(h.jwtManager.TokenDuration().Seconds()),
		TokenType:    "Bearer",
		User:         user,
		Capabilities: capability.Summarize(user.Role),
		ActingFor:    actingFor,
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil || !jwtauth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.logger.Info("user logged in", "user", user.ID, "role", user.Role)
	c.JSON(http.StatusOK, h.tokenResponse(token, *user, ""))
}

// SwitchUser lets an admin act as another user. A token that is already
// switched is judged by the admin behind it, so the admin can switch back.
func (h *Handler) SwitchUser(c *gin.Context) {
	current, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal := current
	if adminID := auth.ActingFor(c); adminID != "" {
		admin, err := h.db.GetUser(adminID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}
		principal = *admin
	}
	if !capability.CanActAsOthers(principal) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	target, err := h.db.GetUser(req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	var token, actingFor string
	if target.ID == principal.ID {
		token, err = h.jwtManager.Generate(target.ID, target.Email, string(target.Role))
	} else {
		actingFor = principal.ID
		token, err = h.jwtManager.GenerateActingAs(principal.ID, target.ID, target.Email, string(target.Role))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.logger.Info("acting user switched", "admin", principal.ID, "user", target.ID)
	c.JSON(http.StatusOK, h.tokenResponse(token, *target, actingFor))
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"capabilities": capability.Summarize(user.Role),
		"acting_for":   auth.ActingFor(c),
	})
}

// ListUsers backs the switch-user picker.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.db.ListUsers()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
