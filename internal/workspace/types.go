// Package workspace holds the dashboard's domain data: user profiles,
// meetings, and their action points. All data lives in memory and is lost on
// restart; the store seeds itself with a fixed demo workspace.
package workspace

// Role is a user's access level. Members see a reduced navigation surface;
// admins see everything.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// Priority orders action points by urgency.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Status tracks an action point's progress.
type Status string

const (
	StatusCompleted  Status = "Completed"
	StatusInProgress Status = "In Progress"
	StatusPending    Status = "Pending"
)

// User is one of the fixed login profiles.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Coins     int    `json:"coins"`
	AvatarURL string `json:"avatarUrl"`
}

// ActionPoint is a task assigned out of a meeting.
type ActionPoint struct {
	ID         string   `json:"id"`
	MeetingID  string   `json:"meetingId"`
	Title      string   `json:"title"`
	Details    string   `json:"details"`
	AssignedTo string   `json:"assignedTo"`
	Priority   Priority `json:"priority"`
	Status     Status   `json:"status"`
}

// Meeting is a past meeting with its summary and derived action points.
type Meeting struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Date         string        `json:"date"`
	Summary      string        `json:"summary"`
	ActionPoints []ActionPoint `json:"actionPoints"`
}
