package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/headless-pm/team-collab/internal/capability"
	"github.com/headless-pm/team-collab/internal/models"
)

var (
	ErrForbidden    = errors.New("insufficient permissions for this operation")
	ErrEmptyBlocker = errors.New("blocker reason is empty")
	ErrInvalidTask  = errors.New("invalid task")
)

// TaskStore is the slice of the repository layer the task service writes
// through.
type TaskStore interface {
	GetTask(id string) (*models.Task, error)
	CreateTask(task *models.Task) error
	SaveTaskStatus(task *models.Task, status models.TaskStatus, actor models.User) error
	SaveTaskBlocker(task *models.Task, reason *string, actor models.User) error
}

// TaskService owns every task mutation and checks the acting user's
// capabilities itself instead of trusting callers.
type TaskService struct {
	store  TaskStore
	logger *slog.Logger

	onStatusChange func(models.TaskStatus)
}

func NewTaskService(store TaskStore, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{store: store, logger: logger}
}

// OnStatusChange registers fn to be called after every persisted status
// transition.
func (s *TaskService) OnStatusChange(fn func(models.TaskStatus)) {
	s.onStatusChange = fn
}

func (s *TaskService) CreateTask(actor models.User, task models.Task) (*models.Task, error) {
	if !capability.CanCreateTasks(actor) {
		return nil, fmt.Errorf("%w: role %q cannot create tasks", ErrForbidden, actor.Role)
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" || task.ProjectID == "" {
		return nil, fmt.Errorf("%w: title and project are required", ErrInvalidTask)
	}

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if !task.Status.Valid() {
		return nil, models.ErrInvalidStatus
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if !task.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", ErrInvalidTask, task.Priority)
	}
	task.CreatedBy = actor.ID

	if err := s.store.CreateTask(&task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task", task.ID, "project", task.ProjectID, "by", actor.ID)
	return &task, nil
}

// UpdateStatus moves a task to status. Setting the current status again is a
// no-op and writes no activity.
func (s *TaskService) UpdateStatus(actor models.User, taskID string, status models.TaskStatus) (*models.Task, error) {
	if !capability.CanUpdateTaskStatus(actor) {
		return nil, fmt.Errorf("%w: role %q cannot update task status", ErrForbidden, actor.Role)
	}
	if !status.Valid() {
		return nil, models.ErrInvalidStatus
	}

	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == status {
		return task, nil
	}

	old := task.Status
	if err := s.store.SaveTaskStatus(task, status, actor); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	task.Status = status
	if s.onStatusChange != nil {
		s.onStatusChange(status)
	}

	s.logger.Info("task status changed", "task", task.ID, "from", old, "to", status, "by", actor.ID)
	return task, nil
}

// FlagBlocker records an active blocker. The task's status is untouched.
func (s *TaskService) FlagBlocker(actor models.User, taskID, reason string) (*models.Task, error) {
	if !capability.CanManageBlockers(actor) {
		return nil, fmt.Errorf("%w: role %q cannot flag blockers", ErrForbidden, actor.Role)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyBlocker
	}

	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTaskBlocker(task, &reason, actor); err != nil {
		return nil, fmt.Errorf("failed to flag blocker: %w", err)
	}
	task.BlockerReason = &reason

	s.logger.Info("task blocked", "task", task.ID, "by", actor.ID)
	return task, nil
}

func (s *TaskService) ResolveBlocker(actor models.User, taskID string) (*models.Task, error) {
	if !capability.CanManageBlockers(actor) {
		return nil, fmt.Errorf("%w: role %q cannot resolve blockers", ErrForbidden, actor.Role)
	}

	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsBlocked() {
		return task, nil
	}
	if err := s.store.SaveTaskBlocker(task, nil, actor); err != nil {
		return nil, fmt.Errorf("failed to resolve blocker: %w", err)
	}
	task.BlockerReason = nil

	s.logger.Info("task unblocked", "task", task.ID, "by", actor.ID)
	return task, nil
}
