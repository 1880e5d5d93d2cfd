package workspace

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("workspace: not found")

// MemStore is the in-memory workspace store. Safe for concurrent use.
type MemStore struct {
	mu           sync.RWMutex
	users        []User
	meetings     []Meeting
	actionPoints []ActionPoint
	nextAPID     int
}

// NewMemStore creates a store populated with the demo workspace.
func NewMemStore() *MemStore {
	return &MemStore{
		users:        seedUsers(),
		meetings:     seedMeetings(),
		actionPoints: seedActionPoints(),
		nextAPID:     len(seedActionPoints()),
	}
}

// Users returns all login profiles.
func (s *MemStore) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// UserByID looks up one profile.
func (s *MemStore) UserByID(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: user %q", ErrNotFound, id)
}

// ParticipantNames returns the users' display names with any parenthetical
// role suffix stripped, for assignee matching.
func (s *MemStore) ParticipantNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.users))
	for _, u := range s.users {
		name := u.Name
		if i := strings.Index(name, "("); i > 0 {
			name = strings.TrimSpace(name[:i])
		}
		names = append(names, name)
	}
	return names
}

// Meetings returns all meetings with their action points attached.
func (s *MemStore) Meetings() []Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Meeting, len(s.meetings))
	for i, m := range s.meetings {
		out[i] = m
		out[i].ActionPoints = s.actionPointsForMeetingLocked(m.ID)
	}
	return out
}

// MeetingByID looks up one meeting with its action points attached.
func (s *MemStore) MeetingByID(id string) (Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.meetings {
		if m.ID == id {
			m.ActionPoints = s.actionPointsForMeetingLocked(id)
			return m, nil
		}
	}
	return Meeting{}, fmt.Errorf("%w: meeting %q", ErrNotFound, id)
}

// ActionPoints returns all action points across meetings.
func (s *MemStore) ActionPoints() []ActionPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.actionPoints)
}

// ActionPointsForAssignee filters action points by assignee name.
func (s *MemStore) ActionPointsForAssignee(name string) []ActionPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ActionPoint
	for _, ap := range s.actionPoints {
		if ap.AssignedTo == name {
			out = append(out, ap)
		}
	}
	return out
}

// UpdateActionPointStatus moves an action point to a new status.
func (s *MemStore) UpdateActionPointStatus(id string, status Status) (ActionPoint, error) {
	switch status {
	case StatusCompleted, StatusInProgress, StatusPending:
	default:
		return ActionPoint{}, fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.actionPoints {
		if s.actionPoints[i].ID == id {
			s.actionPoints[i].Status = status
			return s.actionPoints[i], nil
		}
	}
	return ActionPoint{}, fmt.Errorf("%w: action point %q", ErrNotFound, id)
}

// AddActionPoint records a new action point (e.g., an accepted live-meeting
// suggestion) and returns it with its assigned ID. MeetingID may be empty for
// items created outside a recorded meeting.
func (s *MemStore) AddActionPoint(ap ActionPoint) ActionPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAPID++
	ap.ID = fmt.Sprintf("ap%d", s.nextAPID)
	if ap.Priority == "" {
		ap.Priority = PriorityMedium
	}
	if ap.Status == "" {
		ap.Status = StatusPending
	}
	s.actionPoints = append(s.actionPoints, ap)
	return ap
}

func (s *MemStore) actionPointsForMeetingLocked(meetingID string) []ActionPoint {
	var out []ActionPoint
	for _, ap := range s.actionPoints {
		if ap.MeetingID == meetingID {
			out = append(out, ap)
		}
	}
	return out
}
