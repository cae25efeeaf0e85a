package models

import "github.com/google/uuid"

// Agent is a named AI persona that joins meetings on the owner's behalf.
type Agent struct {
	Base
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	Instructions string    `gorm:"type:text;not null" json:"instructions"`

	// Relationships
	User     *User     `gorm:"foreignKey:UserID" json:"-"`
	Meetings []Meeting `gorm:"foreignKey:AgentID" json:"-"`
}

func (Agent) TableName() string {
	return "agents"
}
