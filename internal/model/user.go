package model

import (
	"time"
)

type UserStatus string

const (
	UserPending  UserStatus = "PENDING"
	UserApproved UserStatus = "APPROVED"
)

// User is an external identity that asked for access. Rejected users are
// deleted, so there is no rejected status.
type User struct {
	ID         string     `gorm:"type:varchar(255);primaryKey" json:"id"` // Identity provider subject
	Email      string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name       string     `gorm:"type:varchar(255)" json:"name"`
	AvatarURL  string     `gorm:"type:text" json:"avatar_url"`
	Status     UserStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IsAdmin    bool       `gorm:"not null;default:false" json:"is_admin"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsApproved checks whether the user may access the system
func (u *User) IsApproved() bool {
	return u.Status == UserApproved
}
