package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/rollup"
)

type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	MilestoneID *string             `json:"milestone_id"`
	AssignedTo  *string             `json:"assigned_to"`
	DueDate     *time.Time          `json:"due_date"`
	Priority    models.TaskPriority `json:"priority"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type BlockerRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// projectTasks loads the project's tasks, answering 404 for unknown projects.
func (h *Handler) projectTasks(c *gin.Context) ([]models.Task, bool) {
	projectID := c.Param("project")
	if _, err := h.db.GetProject(projectID); err != nil {
		h.respondError(c, err)
		return nil, false
	}

	tasks, err := h.db.ListProjectTasks(projectID)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return tasks, true
}

// ListTasks returns the tasks the current user may browse. ?mine=true narrows
// to tasks assigned to them and ?blocked=true to tasks with an active blocker.
func (h *Handler) ListTasks(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	tasks, ok := h.projectTasks(c)
	if !ok {
		return
	}

	visible := rollup.VisibleTasks(user, tasks)
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		visible = rollup.UserTasks(user.ID, visible)
	}
	if blocked, _ := strconv.ParseBool(c.Query("blocked")); blocked {
		visible = rollup.Blocked(visible)
	}

	c.JSON(http.StatusOK, visible)
}

func (h *Handler) TaskSummary(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	tasks, ok := h.projectTasks(c)
	if !ok {
		return
	}

	visible := rollup.VisibleTasks(user, tasks)
	counts := rollup.CountByStatus(visible)
	c.JSON(http.StatusOK, gin.H{
		"todo":        counts.Todo,
		"in_progress": counts.InProgress,
		"done":        counts.Done,
		"total":       counts.Total(),
		"blocked":     len(rollup.Blocked(visible)),
	})
}

func (h *Handler) CreateTask(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID := c.Param("project")
	if _, err := h.db.GetProject(projectID); err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(user, models.Task{
		ProjectID:   projectID,
		MilestoneID: req.MilestoneID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := models.ParseTaskStatus(req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.tasks.UpdateStatus(user, c.Param("id"), status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) FlagBlocker(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req BlockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.FlagBlocker(user, c.Param("id"), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) ResolveBlocker(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.ResolveBlocker(user, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) TaskActivity(c *gin.Context) {
	taskID := c.Param("id")
	if _, err := h.db.GetTask(taskID); err != nil {
		h.respondError(c, err)
		return
	}

	activities, err := h.db.GetTaskActivities(taskID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}
