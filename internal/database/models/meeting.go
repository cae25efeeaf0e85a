package models

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingStatusUpcoming   MeetingStatus = "upcoming"
	MeetingStatusActive     MeetingStatus = "active"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// ValidMeetingStatus reports whether s is a member of the status enum.
func ValidMeetingStatus(s string) bool {
	switch MeetingStatus(s) {
	case MeetingStatusUpcoming, MeetingStatusActive, MeetingStatusProcessing,
		MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

type Meeting struct {
	Base
	UserID  uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	AgentID uuid.UUID     `gorm:"type:uuid;index;not null" json:"agent_id"`
	Name    string        `gorm:"not null" json:"name"`
	Status  MeetingStatus `gorm:"not null;index;default:'upcoming'" json:"status"`

	// Set by the call integration as the session runs; nil until then.
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Agent *Agent `gorm:"foreignKey:AgentID" json:"-"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// Duration returns ended-at minus started-at in seconds. It is derived at
// read time, never stored, and nil when either timestamp is absent. Callers
// treat non-positive values as "no duration".
func (m *Meeting) Duration() *float64 {
	if m.StartedAt == nil || m.EndedAt == nil {
		return nil
	}
	d := m.EndedAt.Sub(*m.StartedAt).Seconds()
	return &d
}
