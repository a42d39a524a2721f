package mcp

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func objectSchema(required []string, props map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var conversationTypeProp = map[string]interface{}{
	"type":        "string",
	"description": "Conversation kind",
	"enum":        []string{"project_discussion", "task_discussion"},
}

func toolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "my_capabilities",
			Description: "Show what the acting user's role allows",
			InputSchema: objectSchema(nil, map[string]interface{}{}),
		},
		{
			Name:        "list_my_tasks",
			Description: "List the project's tasks assigned to the acting user",
			InputSchema: objectSchema([]string{"project_id"}, map[string]interface{}{
				"project_id": stringProp("Project ID"),
			}),
		},
		{
			Name:        "count_tasks_by_status",
			Description: "Count the visible tasks of a project per status",
			InputSchema: objectSchema([]string{"project_id"}, map[string]interface{}{
				"project_id": stringProp("Project ID"),
			}),
		},
		{
			Name:        "update_task_status",
			Description: "Move a task to todo, in_progress or done",
			InputSchema: objectSchema([]string{"task_id", "status"}, map[string]interface{}{
				"task_id": stringProp("Task ID"),
				"status": map[string]interface{}{
					"type":        "string",
					"description": "New status",
					"enum":        []string{"todo", "in_progress", "done"},
				},
			}),
		},
		{
			Name:        "flag_blocker",
			Description: "Mark a task as blocked without changing its status",
			InputSchema: objectSchema([]string{"task_id", "reason"}, map[string]interface{}{
				"task_id": stringProp("Task ID"),
				"reason":  stringProp("What the task is waiting on"),
			}),
		},
		{
			Name:        "resolve_blocker",
			Description: "Clear a task's blocker",
			InputSchema: objectSchema([]string{"task_id"}, map[string]interface{}{
				"task_id": stringProp("Task ID"),
			}),
		},
		{
			Name:        "milestone_status",
			Description: "Task counts and progress of one milestone",
			InputSchema: objectSchema([]string{"milestone_id"}, map[string]interface{}{
				"milestone_id": stringProp("Milestone ID"),
			}),
		},
		{
			Name:        "list_milestones",
			Description: "Every milestone of a project with its progress",
			InputSchema: objectSchema([]string{"project_id"}, map[string]interface{}{
				"project_id": stringProp("Project ID"),
			}),
		},
		{
			Name:        "get_conversation",
			Description: "Full message history of a project or task conversation",
			InputSchema: objectSchema([]string{"conversation_type", "target_id"}, map[string]interface{}{
				"conversation_type": conversationTypeProp,
				"target_id":         stringProp("Project or task ID"),
			}),
		},
		{
			Name:        "send_message",
			Description: "Post a message to a project or task conversation",
			InputSchema: objectSchema([]string{"conversation_type", "target_id", "content"}, map[string]interface{}{
				"conversation_type": conversationTypeProp,
				"target_id":         stringProp("Project or task ID"),
				"content":           stringProp("Message text"),
			}),
		},
	}
}
