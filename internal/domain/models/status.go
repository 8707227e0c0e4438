// internal/domain/models/status.go
package models

// Global user roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Team membership roles reuse RoleAdmin / RoleMember.

// Team membership statuses.
const (
	MembershipPending  = "pending"
	MembershipApproved = "approved"
	MembershipRejected = "rejected"
)

// Project statuses.
const (
	ProjectActive    = "active"
	ProjectArchived  = "archived"
	ProjectCompleted = "completed"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
	TaskBlocked    = "blocked"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// IsValidRole reports whether v is a recognized global role.
func IsValidRole(v string) bool {
	return v == RoleAdmin || v == RoleMember
}

// IsValidProjectStatus reports whether v is a recognized project status.
func IsValidProjectStatus(v string) bool {
	switch v {
	case ProjectActive, ProjectArchived, ProjectCompleted:
		return true
	}
	return false
}

// IsValidTaskStatus reports whether v is a recognized task status.
func IsValidTaskStatus(v string) bool {
	switch v {
	case TaskTodo, TaskInProgress, TaskDone, TaskBlocked:
		return true
	}
	return false
}

// IsValidTaskPriority reports whether v is a recognized task priority.
func IsValidTaskPriority(v string) bool {
	switch v {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
