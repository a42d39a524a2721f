// Package capability maps a user's role to the operations they may perform.
//
// It is the only place that branches on models.UserRole. Every query reads
// the static table on each call so a caller that swaps the acting user
// between calls always gets the answer for the current user.
package capability

import "github.com/headless-pm/team-collab/internal/models"

// Set is the capability set of a single role.
type Set struct {
	updateTaskStatus bool
	manageBlockers   bool
	createTasks      bool
	sendMessages     bool
	seeAllTasks      bool
	actAsOthers      bool
}

var table = map[models.UserRole]Set{
	models.UserRoleAdmin: {
		updateTaskStatus: true,
		manageBlockers:   true,
		createTasks:      true,
		sendMessages:     true,
		seeAllTasks:      true,
		actAsOthers:      true,
	},
	models.UserRoleMember: {
		updateTaskStatus: true,
		manageBlockers:   true,
		createTasks:      true,
		sendMessages:     true,
	},
	// Viewers are read-only participants but still see the whole board.
	models.UserRoleViewer: {
		seeAllTasks: true,
	},
}

// For returns the capability set of role. Unknown roles get the empty set.
func For(role models.UserRole) Set {
	return table[role]
}

func (s Set) CanUpdateTaskStatus() bool { return s.updateTaskStatus }
func (s Set) CanManageBlockers() bool   { return s.manageBlockers }
func (s Set) CanCreateTasks() bool      { return s.createTasks }
func (s Set) CanSendMessages() bool     { return s.sendMessages }

// SeesAllTasks reports whether the role browses the unfiltered project
// board. Roles without it only see tasks assigned to them.
func (s Set) SeesAllTasks() bool { return s.seeAllTasks }

// CanActAsOthers reports whether the role may switch the acting user.
func (s Set) CanActAsOthers() bool { return s.actAsOthers }

// Summary is the JSON view of a Set.
type Summary struct {
	Role             models.UserRole `json:"role"`
	UpdateTaskStatus bool            `json:"update_task_status"`
	ManageBlockers   bool            `json:"manage_blockers"`
	CreateTasks      bool            `json:"create_tasks"`
	SendMessages     bool            `json:"send_messages"`
	SeeAllTasks      bool            `json:"see_all_tasks"`
	ActAsOthers      bool            `json:"act_as_others"`
}

func Summarize(role models.UserRole) Summary {
	s := For(role)
	return Summary{
		Role:             role,
		UpdateTaskStatus: s.CanUpdateTaskStatus(),
		ManageBlockers:   s.CanManageBlockers(),
		CreateTasks:      s.CanCreateTasks(),
		SendMessages:     s.CanSendMessages(),
		SeeAllTasks:      s.SeesAllTasks(),
		ActAsOthers:      s.CanActAsOthers(),
	}
}

// CanUpdateTaskStatus reports whether u may move tasks between statuses.
func CanUpdateTaskStatus(u models.User) bool {
	return For(u.Role).CanUpdateTaskStatus()
}

// CanSendMessages reports whether u may post to conversations.
func CanSendMessages(u models.User) bool {
	return For(u.Role).CanSendMessages()
}

func CanManageBlockers(u models.User) bool {
	return For(u.Role).CanManageBlockers()
}

func CanCreateTasks(u models.User) bool {
	return For(u.Role).CanCreateTasks()
}

func SeesAllTasks(u models.User) bool {
	return For(u.Role).SeesAllTasks()
}

func CanActAsOthers(u models.User) bool {
	return For(u.Role).CanActAsOthers()
}
