package mcp

import (
	"encoding/json"
	"fmt"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolCall represents a request to execute a tool
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type projectArgs struct {
	ProjectID string `json:"project_id"`
}

type taskArgs struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type milestoneArgs struct {
	MilestoneID string `json:"milestone_id"`
}

type conversationArgs struct {
	ConversationType string `json:"conversation_type"`
	TargetID         string `json:"target_id"`
	Content          string `json:"content"`
}

func unmarshalArgs(args json.RawMessage, target interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func required(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequired, name)
		}
	}
	return nil
}
