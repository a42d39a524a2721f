// Package mcp exposes the collaboration operations as MCP tools so agents can
// work the board with the same permissions as the user they authenticate as.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/headless-pm/team-collab/internal/capability"
	"github.com/headless-pm/team-collab/internal/conversation"
	"github.com/headless-pm/team-collab/internal/database"
	"github.com/headless-pm/team-collab/internal/metrics"
	"github.com/headless-pm/team-collab/internal/models"
	"github.com/headless-pm/team-collab/internal/progress"
	"github.com/headless-pm/team-collab/internal/rollup"
	"github.com/headless-pm/team-collab/internal/service"
)

type MCPServer struct {
	db            *database.Database
	conversations *conversation.Store
	tasks         *service.TaskService
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewMCPServer(
	db *database.Database,
	conversations *conversation.Store,
	tasks *service.TaskService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPServer{
		db:            db,
		conversations: conversations,
		tasks:         tasks,
		metrics:       m,
		logger:        logger,
	}
}

func (s *MCPServer) ListTools() []Tool {
	return toolDefinitions()
}

// ExecuteTool runs call on behalf of user.
func (s *MCPServer) ExecuteTool(ctx context.Context, user models.User, call ToolCall) (interface{}, error) {
	s.logger.DebugContext(ctx, "mcp tool call", "tool", call.Name, "user", user.ID)

	switch call.Name {
	case "my_capabilities":
		return capability.Summarize(user.Role), nil
	case "list_my_tasks":
		return s.listMyTasks(user, call)
	case "count_tasks_by_status":
		return s.countTasksByStatus(user, call)
	case "update_task_status":
		var args taskArgs
		if err := s.taskArgs(call, &args, "status"); err != nil {
			return nil, err
		}
		return s.tasks.UpdateStatus(user, args.TaskID, models.TaskStatus(args.Status))
	case "flag_blocker":
		var args taskArgs
		if err := s.taskArgs(call, &args, "reason"); err != nil {
			return nil, err
		}
		return s.tasks.FlagBlocker(user, args.TaskID, args.Reason)
	case "resolve_blocker":
		var args taskArgs
		if err := s.taskArgs(call, &args, ""); err != nil {
			return nil, err
		}
		return s.tasks.ResolveBlocker(user, args.TaskID)
	case "milestone_status":
		return s.milestoneStatus(call)
	case "list_milestones":
		return s.listMilestones(call)
	case "get_conversation":
		return s.getConversation(call)
	case "send_message":
		return s.sendMessage(user, call)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
}

func (s *MCPServer) taskArgs(call ToolCall, args *taskArgs, extra string) error {
	if err := unmarshalArgs(call.Arguments, args); err != nil {
		return err
	}
	fields := map[string]string{"task_id": args.TaskID}
	switch extra {
	case "status":
		fields["status"] = args.Status
	case "reason":
		fields["reason"] = args.Reason
	}
	return required(fields)
}

func (s *MCPServer) projectTasks(call ToolCall) (string, []models.Task, error) {
	var args projectArgs
	if err := unmarshalArgs(call.Arguments, &args); err != nil {
		return "", nil, err
	}
	if err := required(map[string]string{"project_id": args.ProjectID}); err != nil {
		return "", nil, err
	}
	if _, err := s.db.GetProject(args.ProjectID); err != nil {
		return "", nil, err
	}
	tasks, err := s.db.ListProjectTasks(args.ProjectID)
	return args.ProjectID, tasks, err
}

func (s *MCPServer) listMyTasks(user models.User, call ToolCall) (interface{}, error) {
	_, tasks, err := s.projectTasks(call)
	if err != nil {
		return nil, err
	}
	return rollup.UserTasks(user.ID, tasks), nil
}

func (s *MCPServer) countTasksByStatus(user models.User, call ToolCall) (interface{}, error) {
	_, tasks, err := s.projectTasks(call)
	if err != nil {
		return nil, err
	}
	return rollup.CountByStatus(rollup.VisibleTasks(user, tasks)), nil
}

func (s *MCPServer) milestoneStatus(call ToolCall) (interface{}, error) {
	var args milestoneArgs
	if err := unmarshalArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	if err := required(map[string]string{"milestone_id": args.MilestoneID}); err != nil {
		return nil, err
	}

	milestone, err := s.db.GetMilestone(args.MilestoneID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.db.ListProjectTasks(milestone.ProjectID)
	if err != nil {
		return nil, err
	}
	return progress.MilestoneStatus(*milestone, tasks), nil
}

func (s *MCPServer) listMilestones(call ToolCall) (interface{}, error) {
	projectID, tasks, err := s.projectTasks(call)
	if err != nil {
		return nil, err
	}

	milestones, err := s.db.ListProjectMilestones(projectID)
	if err != nil {
		return nil, err
	}
	return progress.ProjectMilestones(milestones, tasks), nil
}

func (s *MCPServer) getConversation(call ToolCall) (interface{}, error) {
	var args conversationArgs
	if err := unmarshalArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	kind, err := models.ParseConversationType(args.ConversationType)
	if err != nil {
		return nil, err
	}
	if err := required(map[string]string{"target_id": args.TargetID}); err != nil {
		return nil, err
	}
	return s.conversations.History(kind, args.TargetID), nil
}

func (s *MCPServer) sendMessage(user models.User, call ToolCall) (interface{}, error) {
	var args conversationArgs
	if err := unmarshalArgs(call.Arguments, &args); err != nil {
		return nil, err
	}
	if err := required(map[string]string{"target_id": args.TargetID}); err != nil {
		return nil, err
	}

	msg, err := s.conversations.Send(models.ConversationType(args.ConversationType), args.TargetID, user, args.Content)
	if err != nil {
		if errors.Is(err, conversation.ErrPermissionDenied) {
			s.metrics.MessageDenied()
		}
		return nil, err
	}
	s.metrics.MessageSent(string(msg.ConversationType))
	return msg, nil
}
