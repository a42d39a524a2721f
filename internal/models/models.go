package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the three lifecycle states. Blocked is
// not a status; see Task.BlockerReason.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	}
	return false
}

type Project struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	Name        string      `json:"name" gorm:"not null"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Tasks       []Task      `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
	Milestones  []Milestone `json:"milestones,omitempty" gorm:"foreignKey:ProjectID"`
}

type Task struct {
	ID            string       `json:"id" gorm:"primaryKey"`
	ProjectID     string       `json:"project_id" gorm:"not null;index"`
	MilestoneID   *string      `json:"milestone_id,omitempty" gorm:"index"`
	Title         string       `json:"title" gorm:"not null"`
	Description   string       `json:"description"`
	AssignedTo    *string      `json:"assigned_to,omitempty" gorm:"index"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	Priority      TaskPriority `json:"priority" gorm:"default:'medium'"`
	Status        TaskStatus   `json:"status" gorm:"default:'todo'"`
	BlockerReason *string      `json:"blocker_reason,omitempty"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// IsBlocked reports whether the task carries an active blocker. It says
// nothing about the task's status.
func (t Task) IsBlocked() bool {
	return t.BlockerReason != nil
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// Milestone never stores its own progress; see MilestoneStatus.
type Milestone struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ProjectID   string    `json:"project_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Order       int       `json:"order" gorm:"column:sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MilestoneStatus is derived from the current task set on every query and is
// never persisted.
type MilestoneStatus struct {
	MilestoneID     string  `json:"milestone_id"`
	Title           string  `json:"title"`
	TotalTasks      int     `json:"total_tasks"`
	TodoCount       int     `json:"todo_count"`
	InProgressCount int     `json:"in_progress_count"`
	DoneCount       int     `json:"done_count"`
	Progress        float64 `json:"progress"`
	IsCompleted     bool    `json:"is_completed"`
}

// Activity is an audit row for task mutations.
type Activity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    string    `json:"task_id" gorm:"not null;index"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action" gorm:"not null"`
	FieldName string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}
