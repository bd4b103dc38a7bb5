package domain

import "time"

type UserRole string

const (
	RoleCandidate UserRole = "CANDIDATE"
	RoleAdmin     UserRole = "ADMIN"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Email        string   `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash *string  `gorm:"size:255"` // nullable: simple registration has no password
	Name         string   `gorm:"size:255;not null"`
	Phone        *string  `gorm:"size:50"`
	Role         UserRole `gorm:"size:50;default:'CANDIDATE';not null"`
	ResumeText   *string  `gorm:"type:longtext"`
	CreatedAt    time.Time
}
