// Package progress derives milestone status from the current task set.
//
// Nothing here is cached. Milestones carry no progress field, so the result
// is always consistent with the snapshot passed in, at the cost of one scan
// of the tasks per milestone.
package progress

import (
	"sort"

	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/rollup"
)

// MilestoneStatus aggregates the tasks whose MilestoneID references m.
// A milestone with no tasks has zero progress and is never completed.
func MilestoneStatus(m models.Milestone, allTasks []models.Task) models.MilestoneStatus {
	var owned []models.Task
	for _, t := range allTasks {
		if t.MilestoneID != nil && *t.MilestoneID == m.ID {
			owned = append(owned, t)
		}
	}

	counts := rollup.CountByStatus(owned)
	status := models.MilestoneStatus{
		MilestoneID:     m.ID,
		Title:           m.Title,
		TotalTasks:      counts.Total(),
		TodoCount:       counts.Todo,
		InProgressCount: counts.InProgress,
		DoneCount:       counts.Done,
	}
	if status.TotalTasks > 0 {
		status.Progress = float64(status.DoneCount) / float64(status.TotalTasks)
		status.IsCompleted = status.DoneCount == status.TotalTasks
	}
	return status
}

// IsMilestoneCompleted is MilestoneStatus(m, allTasks).IsCompleted.
func IsMilestoneCompleted(m models.Milestone, allTasks []models.Task) bool {
	return MilestoneStatus(m, allTasks).IsCompleted
}

// ProjectMilestones returns the status of every milestone, sorted by Order
// and then ID.
func ProjectMilestones(milestones []models.Milestone, allTasks []models.Task) []models.MilestoneStatus {
	sorted := make([]models.Milestone, len(milestones))
	copy(sorted, milestones)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]models.MilestoneStatus, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, MilestoneStatus(m, allTasks))
	}
	return out
}
