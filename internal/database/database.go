package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

type Database struct {
	*gorm.DB
}

func NewDatabase(cfg config.DatabaseConfig, log *slog.Logger) (*Database, error) {
	dialector, err := open(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelDebug),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logLevel(cfg.LogLevel),
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Milestone{},
		&models.Task{},
		&models.Activity{},
		&models.ChatMessage{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

func open(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "":
		dbPath := filepath.Join(cfg.DataDir, "db", "collab.db")

		// Ensure the db directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.Open(dbPath + "?_journal_mode=WAL&_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// User management functions
func (db *Database) CreateUser(user *models.User) error {
	if user.Role == "" {
		user.Role = models.UserRoleMember
	}
	if !user.Role.Valid() {
		return models.ErrInvalidRole
	}
	if user.JoinDate.IsZero() {
		user.JoinDate = time.Now()
	}
	return db.DB.Create(user).Error
}

func (db *Database) GetUser(id string) (*models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (db *Database) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (db *Database) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := db.DB.Order("join_date, id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (db *Database) CreateProject(project *models.Project) error {
	return db.DB.Create(project).Error
}

func (db *Database) GetProject(id string) (*models.Project, error) {
	var project models.Project
	if err := db.DB.First(&project, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (db *Database) CreateTask(task *models.Task) error {
	return db.DB.Create(task).Error
}

func (db *Database) GetTask(id string) (*models.Task, error) {
	var task models.Task
	if err := db.DB.First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// ListProjectTasks returns a snapshot of a project's tasks in creation order.
func (db *Database) ListProjectTasks(projectID string) ([]models.Task, error) {
	var tasks []models.Task
	err := db.DB.Where("project_id = ?", projectID).
		Order("created_at, id").
		Find(&tasks).Error
	return tasks, err
}

// SaveTaskStatus writes the new status and an activity row in one
// transaction.
func (db *Database) SaveTaskStatus(task *models.Task, status models.TaskStatus, actor models.User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		old := task.Status
		if err := tx.Model(task).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Create(&models.Activity{
			TaskID:    task.ID,
			UserID:    actor.ID,
			UserName:  actor.Name,
			Action:    "status_changed",
			FieldName: "status",
			OldValue:  string(old),
			NewValue:  string(status),
		}).Error
	})
}

// SaveTaskBlocker sets or clears (reason == nil) the task's blocker.
func (db *Database) SaveTaskBlocker(task *models.Task, reason *string, actor models.User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var old, next string
		if task.BlockerReason != nil {
			old = *task.BlockerReason
		}
		action := "blocker_resolved"
		if reason != nil {
			next = *reason
			action = "blocker_flagged"
		}

		if err := tx.Model(task).Update("blocker_reason", reason).Error; err != nil {
			return err
		}
		return tx.Create(&models.Activity{
			TaskID:    task.ID,
			UserID:    actor.ID,
			UserName:  actor.Name,
			Action:    action,
			FieldName: "blocker_reason",
			OldValue:  old,
			NewValue:  next,
		}).Error
	})
}

func (db *Database) CreateMilestone(milestone *models.Milestone) error {
	return db.DB.Create(milestone).Error
}

func (db *Database) GetMilestone(id string) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := db.DB.First(&milestone, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &milestone, nil
}

func (db *Database) ListProjectMilestones(projectID string) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := db.DB.Where("project_id = ?", projectID).
		Order("sort_order, id").
		Find(&milestones).Error
	return milestones, err
}

// SaveMessage persists a chat message. Saving the same message twice is a
// no-op, so journal retries are safe.
func (db *Database) SaveMessage(msg *models.ChatMessage) error {
	return db.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(msg).Error
}

// ListMessages returns every persisted message, oldest first within each
// conversation.
func (db *Database) ListMessages() ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := db.DB.Order("conversation_type, target_id, seq").Find(&msgs).Error
	return msgs, err
}

// Activity logging functions
func (db *Database) LogActivity(activity *models.Activity) error {
	return db.Create(activity).Error
}

func (db *Database) GetTaskActivities(taskID string) ([]models.Activity, error) {
	var activities []models.Activity
	err := db.Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&activities).Error
	return activities, err
}
