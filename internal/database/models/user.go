package models

type User struct {
	Base
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Agents   []Agent   `gorm:"foreignKey:UserID" json:"-"`
	Meetings []Meeting `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
