package main

import (
	"fmt"
	"time"

	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/pkg/auth"
	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo data (safe to run more than once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.seed(password); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Sample data added successfully!")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "password123", "Password for every demo user")
	return cmd
}

func (a *app) seed(password string) error {
	db, err := database.NewDatabase(a.cfg.Database, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	day := func(month time.Month, d int) time.Time { return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC) }

	users := []models.User{
		{ID: "user_001", Name: "Tunde", Email: "tunde@example.com", Role: models.UserRoleAdmin, JoinDate: day(time.January, 10)},
		{ID: "user_002", Name: "Ada", Email: "ada@example.com", Role: models.UserRoleMember, JoinDate: day(time.January, 12)},
		{ID: "user_003", Name: "Pat", Email: "pat@example.com", Role: models.UserRoleViewer, JoinDate: day(time.March, 1)},
	}
	for _, user := range users {
		user.PasswordHash = hash
		if err := db.FirstOrCreate(&user, models.User{ID: user.ID}).Error; err != nil {
			return err
		}
	}

	project := models.Project{ID: "proj_001", Name: "Capstone", Description: "Final year group project"}
	if err := db.FirstOrCreate(&project, models.Project{ID: project.ID}).Error; err != nil {
		return err
	}

	milestones := []models.Milestone{
		{ID: "ms_001", ProjectID: project.ID, Title: "Research", Order: 1, DueDate: day(time.February, 15)},
		{ID: "ms_002", ProjectID: project.ID, Title: "Prototype", Order: 2, DueDate: day(time.April, 1)},
	}
	for _, milestone := range milestones {
		if err := db.FirstOrCreate(&milestone, models.Milestone{ID: milestone.ID}).Error; err != nil {
			return err
		}
	}

	ms1, ms2 := "ms_001", "ms_002"
	tunde, ada := "user_001", "user_002"
	reason := "Waiting on survey responses"
	tasks := []models.Task{
		{ID: "task_001", ProjectID: project.ID, MilestoneID: &ms1, Title: "Literature review", AssignedTo: &ada, Status: models.TaskStatusDone, Priority: models.TaskPriorityHigh},
		{ID: "task_002", ProjectID: project.ID, MilestoneID: &ms1, Title: "Interview plan", AssignedTo: &tunde, Status: models.TaskStatusDone, Priority: models.TaskPriorityMedium},
		{ID: "task_003", ProjectID: project.ID, MilestoneID: &ms1, Title: "Survey analysis", AssignedTo: &ada, Status: models.TaskStatusInProgress, Priority: models.TaskPriorityHigh, BlockerReason: &reason},
		{ID: "task_004", ProjectID: project.ID, MilestoneID: &ms2, Title: "Wireframes", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow},
	}
	for _, task := range tasks {
		task.CreatedBy = tunde
		if err := db.FirstOrCreate(&task, models.Task{ID: task.ID}).Error; err != nil {
			return err
		}
	}

	return seedWelcome(db, users[0], project.ID)
}

// seedWelcome posts the first project message unless the conversation
// already has history.
func seedWelcome(db *database.Database, admin models.User, projectID string) error {
	persisted, err := db.ListMessages()
	if err != nil {
		return err
	}
	store := conversation.New(conversation.Options{})
	store.Restore(persisted)
	if len(store.History(models.ConversationProject, projectID)) > 0 {
		return nil
	}

	msg, err := store.Send(models.ConversationProject, projectID, admin, "Welcome to the Capstone project!")
	if err != nil {
		return err
	}
	return db.SaveMessage(&msg)
}
