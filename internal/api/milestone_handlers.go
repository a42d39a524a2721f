package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/progress"
)

// ListMilestones returns every milestone of the project with its progress,
// in display order.
func (h *Handler) ListMilestones(c *gin.Context) {
	tasks, ok := h.projectTasks(c)
	if !ok {
		return
	}

	milestones, err := h.db.ListProjectMilestones(c.Param("project"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress.ProjectMilestones(milestones, tasks))
}

func (h *Handler) MilestoneStatus(c *gin.Context) {
	milestone, err := h.db.GetMilestone(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	tasks, err := h.db.ListProjectTasks(milestone.ProjectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress.MilestoneStatus(*milestone, tasks))
}
