package rollup

import (
	"testing"

	"github.com/headless-pm/team-collab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "t1", AssignedTo: strPtr("ada"), Status: models.TaskStatusTodo},
		{ID: "t2", AssignedTo: strPtr("tunde"), Status: models.TaskStatusDone},
		{ID: "t3", AssignedTo: strPtr("ada"), Status: models.TaskStatusInProgress, BlockerReason: strPtr("waiting on API keys")},
		{ID: "t4", Status: models.TaskStatusTodo},
		{ID: "t5", AssignedTo: strPtr("ada"), Status: models.TaskStatusDone},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestUserTasks(t *testing.T) {
	tasks := sampleTasks()

	t.Run("FiltersAndPreservesOrder", func(t *testing.T) {
		got := UserTasks("ada", tasks)
		assert.Equal(t, []string{"t1", "t3", "t5"}, ids(got))
		for _, task := range got {
			require.NotNil(t, task.AssignedTo)
			assert.Equal(t, "ada", *task.AssignedTo)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := UserTasks("ada", tasks)
		assert.Equal(t, once, UserTasks("ada", once))
	})

	t.Run("NoMatches", func(t *testing.T) {
		assert.Empty(t, UserTasks("nobody", tasks))
		assert.Empty(t, UserTasks("ada", nil))
	})
}

func TestCountByStatus(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		c := CountByStatus(nil)
		assert.Equal(t, StatusCounts{}, c)
		assert.Equal(t, 0, c.Total())
	})

	t.Run("SumMatchesInput", func(t *testing.T) {
		tasks := sampleTasks()
		c := CountByStatus(tasks)
		assert.Equal(t, StatusCounts{Todo: 2, InProgress: 1, Done: 2}, c)
		assert.Equal(t, len(tasks), c.Total())
	})

	t.Run("BlockerDoesNotChangeStatus", func(t *testing.T) {
		c := CountByStatus([]models.Task{
			{ID: "b", Status: models.TaskStatusInProgress, BlockerReason: strPtr("x")},
		})
		assert.Equal(t, 1, c.InProgress)
	})
}

func TestBlocked(t *testing.T) {
	assert.Equal(t, []string{"t3"}, ids(Blocked(sampleTasks())))
	assert.Empty(t, Blocked(nil))
}

func TestVisibleTasks(t *testing.T) {
	tasks := sampleTasks()

	admin := models.User{ID: "tunde", Role: models.UserRoleAdmin}
	member := models.User{ID: "ada", Role: models.UserRoleMember}
	viewer := models.User{ID: "pat", Role: models.UserRoleViewer}

	assert.Len(t, VisibleTasks(admin, tasks), len(tasks))
	assert.Len(t, VisibleTasks(viewer, tasks), len(tasks))
	assert.Equal(t, []string{"t1", "t3", "t5"}, ids(VisibleTasks(member, tasks)))
}
