// Package rollup filters and aggregates task snapshots. Every function is a
// pure function of its arguments and is safe for concurrent use.
package rollup

import (
	"github.com/headless-pm/team-collab/internal/capability"
	"github.com/headless-pm/team-collab/internal/models"
)

// StatusCounts is a tri-partition of a task set. Todo+InProgress+Done always
// equals the size of the input.
type StatusCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

func (c StatusCounts) Total() int {
	return c.Todo + c.InProgress + c.Done
}

// UserTasks returns the tasks assigned to userID in input order.
func UserTasks(userID string, tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsAssignedTo(userID) {
			out = append(out, t)
		}
	}
	return out
}

// CountByStatus counts tasks per lifecycle status.
func CountByStatus(tasks []models.Task) StatusCounts {
	var c StatusCounts
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusInProgress:
			c.InProgress++
		case models.TaskStatusDone:
			c.Done++
		default:
			// Records that escaped validation count as todo so the sum holds.
			c.Todo++
		}
	}
	return c
}

// Blocked returns the tasks carrying an active blocker, in input order.
func Blocked(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if t.IsBlocked() {
			out = append(out, t)
		}
	}
	return out
}

// VisibleTasks applies the board policy for u: roles that see the whole
// board get tasks unchanged, everyone else gets their own assignments.
func VisibleTasks(u models.User, tasks []models.Task) []models.Task {
	if capability.SeesAllTasks(u) {
		return tasks
	}
	return UserTasks(u.ID, tasks)
}
