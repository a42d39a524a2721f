package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/mcp"
	"github.com/headless-pm/team-collab/internal/metrics"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/service"
	jwtauth "github.com/headless-pm/team-collab/pkg/auth"
	"github.com/headless-pm/team-collab/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	db     *database.Database
	jwt    *jwtauth.JWTManager
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.NewDatabase(config.DatabaseConfig{
		Driver:   "sqlite",
		DataDir:  t.TempDir(),
		LogLevel: "silent",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hash, err := jwtauth.HashPassword("password123")
	require.NoError(t, err)
	for _, u := range []models.User{
		{ID: "user_001", Name: "Tunde", Email: "tunde@example.com", Role: models.UserRoleAdmin, PasswordHash: hash},
		{ID: "user_002", Name: "Ada", Email: "ada@example.com", Role: models.UserRoleMember, PasswordHash: hash},
		{ID: "user_003", Name: "Pat", Email: "pat@example.com", Role: models.UserRoleViewer, PasswordHash: hash},
	} {
		u := u
		require.NoError(t, db.CreateUser(&u))
	}
	require.NoError(t, db.CreateProject(&models.Project{ID: "proj_001", Name: "Capstone"}))
	require.NoError(t, db.CreateMilestone(&models.Milestone{ID: "ms_001", ProjectID: "proj_001", Title: "MS1", Order: 1}))
	require.NoError(t, db.CreateMilestone(&models.Milestone{ID: "ms_002", ProjectID: "proj_001", Title: "MS2", Order: 2}))

	ms1, ada := "ms_001", "user_002"
	for _, task := range []models.Task{
		{ID: "task_001", ProjectID: "proj_001", MilestoneID: &ms1, Title: "Outline", Status: models.TaskStatusDone, AssignedTo: &ada},
		{ID: "task_002", ProjectID: "proj_001", MilestoneID: &ms1, Title: "Draft", Status: models.TaskStatusDone},
		{ID: "task_003", ProjectID: "proj_001", MilestoneID: &ms1, Title: "Review", Status: models.TaskStatusInProgress, AssignedTo: &ada},
	} {
		task := task
		require.NoError(t, db.CreateTask(&task))
	}

	store := conversation.New(conversation.Options{Logger: logger})
	jwt := jwtauth.NewJWTManager("test-secret", time.Hour)
	tasks := service.NewTaskService(db, logger)
	m := metrics.New(store.Partitions)
	handler := NewHandler(db, store, tasks, jwt, m, logger)
	mcpServer := mcp.NewMCPServer(db, store, tasks, m, logger)

	return &testEnv{router: SetupRouter(handler, mcpServer), db: db, jwt: jwt}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	user, err := e.db.GetUser(userID)
	require.NoError(t, err)
	token, err := e.jwt.Generate(user.ID, user.Email, string(user.Role))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "pat@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	decode(t, w, &resp)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, models.UserRoleViewer, resp.User.Role)
	assert.False(t, resp.Capabilities.SendMessages)

	me := env.do(t, http.MethodGet, "/api/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"user_003"`)

	w = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "pat@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewerCannotSendButSeesHistory(t *testing.T) {
	env := setupTestEnv(t)
	path := "/api/conversations/project_discussion/proj_001/messages"

	w := env.do(t, http.MethodPost, path, env.token(t, "user_001"), SendMessageRequest{Content: "Welcome"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, path, env.token(t, "user_003"), SendMessageRequest{Content: "Hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Viewers cannot send messages")

	w = env.do(t, http.MethodGet, path, env.token(t, "user_003"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.ChatMessage
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "Welcome", history[0].Content)
	assert.Equal(t, "Tunde", history[0].SenderName)

	metricsBody := env.do(t, http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, metricsBody, `collab_messages_sent_total{type="project_discussion"} 1`)
	assert.Contains(t, metricsBody, "collab_message_denied_total 1")
}

func TestConversationValidation(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.token(t, "user_001")

	w := env.do(t, http.MethodGet, "/api/conversations/dm/proj_001/messages", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/conversations/task_discussion/unknown/messages", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = env.do(t, http.MethodPost, "/api/conversations/task_discussion/task_001/messages", admin, SendMessageRequest{Content: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskStatusPermissions(t *testing.T) {
	env := setupTestEnv(t)
	path := "/api/tasks/task_003/status"

	w := env.do(t, http.MethodPut, path, env.token(t, "user_003"), UpdateStatusRequest{Status: "done"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, env.token(t, "user_002"), UpdateStatusRequest{Status: "blocked"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/tasks/missing/status", env.token(t, "user_002"), UpdateStatusRequest{Status: "done"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, path, env.token(t, "user_002"), UpdateStatusRequest{Status: "done"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/milestones/ms_001/status", env.token(t, "user_003"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.MilestoneStatus
	decode(t, w, &status)
	assert.Equal(t, 3, status.DoneCount)
	assert.True(t, status.IsCompleted)

	w = env.do(t, http.MethodGet, "/api/tasks/task_003/activity", env.token(t, "user_003"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var activities []models.Activity
	decode(t, w, &activities)
	require.Len(t, activities, 1)
	assert.Equal(t, "status_changed", activities[0].Action)
}

func TestBlockerEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	member := env.token(t, "user_002")

	w := env.do(t, http.MethodPut, "/api/tasks/task_003/blocker", member, BlockerRequest{Reason: "waiting on data"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/projects/proj_001/tasks?blocked=true", env.token(t, "user_001"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var blocked []models.Task
	decode(t, w, &blocked)
	require.Len(t, blocked, 1)
	assert.Equal(t, "task_003", blocked[0].ID)
	assert.Equal(t, models.TaskStatusInProgress, blocked[0].Status)

	w = env.do(t, http.MethodDelete, "/api/tasks/task_003/blocker", env.token(t, "user_003"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/tasks/task_003/blocker", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var task models.Task
	decode(t, w, &task)
	assert.Nil(t, task.BlockerReason)
}

func TestTaskListsFollowRole(t *testing.T) {
	env := setupTestEnv(t)

	var tasks []models.Task
	w := env.do(t, http.MethodGet, "/api/projects/proj_001/tasks", env.token(t, "user_003"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tasks)
	assert.Len(t, tasks, 3, "viewers browse the whole board")

	w = env.do(t, http.MethodGet, "/api/projects/proj_001/tasks", env.token(t, "user_002"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tasks)
	assert.Len(t, tasks, 2, "members see their assignments")

	w = env.do(t, http.MethodGet, "/api/projects/proj_001/tasks?mine=true", env.token(t, "user_001"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tasks)
	assert.Empty(t, tasks)

	w = env.do(t, http.MethodGet, "/api/projects/proj_001/tasks/summary", env.token(t, "user_001"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"todo":0,"in_progress":1,"done":2,"total":3,"blocked":0}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/projects/missing/tasks", env.token(t, "user_001"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTask(t *testing.T) {
	env := setupTestEnv(t)
	path := "/api/projects/proj_001/tasks"

	w := env.do(t, http.MethodPost, path, env.token(t, "user_003"), CreateTaskRequest{Title: "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, env.token(t, "user_002"), CreateTaskRequest{Title: "Slides", Priority: models.TaskPriorityHigh})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	decode(t, w, &task)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, "user_002", task.CreatedBy)

	w = env.do(t, http.MethodPost, "/api/projects/missing/tasks", env.token(t, "user_002"), CreateTaskRequest{Title: "Slides"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMilestones(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/projects/proj_001/milestones", env.token(t, "user_003"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statuses []models.MilestoneStatus
	decode(t, w, &statuses)
	require.Len(t, statuses, 2)

	assert.Equal(t, "ms_001", statuses[0].MilestoneID)
	assert.Equal(t, 2, statuses[0].DoneCount)
	assert.Equal(t, 3, statuses[0].TotalTasks)
	assert.InDelta(t, 2.0/3.0, statuses[0].Progress, 1e-9)
	assert.False(t, statuses[0].IsCompleted)

	assert.Equal(t, "ms_002", statuses[1].MilestoneID)
	assert.Zero(t, statuses[1].Progress)
	assert.False(t, statuses[1].IsCompleted)

	w = env.do(t, http.MethodGet, "/api/milestones/missing/status", env.token(t, "user_003"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwitchUser(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/switch", env.token(t, "user_002"), SwitchRequest{UserID: "user_003"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/auth/switch", env.token(t, "user_001"), SwitchRequest{UserID: "user_003"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var asViewer TokenResponse
	decode(t, w, &asViewer)
	assert.Equal(t, "user_001", asViewer.ActingFor)
	assert.Equal(t, models.UserRoleViewer, asViewer.User.Role)

	// Acting as the viewer, the admin loses send rights.
	w = env.do(t, http.MethodPost, "/api/conversations/project_discussion/proj_001/messages",
		asViewer.AccessToken, SendMessageRequest{Content: "Hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// And can switch back.
	w = env.do(t, http.MethodPost, "/auth/switch", asViewer.AccessToken, SwitchRequest{UserID: "user_001"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var back TokenResponse
	decode(t, w, &back)
	assert.Empty(t, back.ActingFor)

	w = env.do(t, http.MethodPost, "/api/conversations/project_discussion/proj_001/messages",
		back.AccessToken, SendMessageRequest{Content: "Hi"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/auth/switch", env.token(t, "user_001"), SwitchRequest{UserID: "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestMetrics(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, http.MethodGet, "/health", "", nil)

	body := env.do(t, http.MethodGet, "/metrics", "", nil).Body.String()
	assert.True(t, strings.Contains(body, `collab_http_request_duration_seconds_count{code="200",method="GET",route="/health"} 1`), body)
}

func TestMCPRoutes(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/mcp/tools", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/mcp/tools", env.token(t, "user_003"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "send_message")

	call := map[string]interface{}{
		"name": "send_message",
		"arguments": map[string]string{
			"conversation_type": "task_discussion",
			"target_id":         "task_003",
			"content":           "Any update?",
		},
	}
	w = env.do(t, http.MethodPost, "/mcp/tools/call", env.token(t, "user_003"), call)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/mcp/tools/call", env.token(t, "user_002"), call)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/conversations/task_discussion/task_003/messages", env.token(t, "user_003"), nil)
	var history []models.ChatMessage
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "Ada", history[0].SenderName)
}
