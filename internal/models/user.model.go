package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	BaseUUIDModel
	FirstName   string     `gorm:"type:text"               json:"firstName"`
	LastName    string     `gorm:"type:text"               json:"lastName"`
	DisplayName string     `gorm:"type:text"               json:"displayName"`
	Email       *string    `gorm:"type:text;uniqueIndex"   json:"email"`
	IsActive    bool       `gorm:"type:bool;default:true"  json:"isActive"`
	LastLoginAt *time.Time `gorm:"type:timestamp"          json:"lastLoginAt,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.DisplayName == "" {
		u.DisplayName = u.FirstName + " " + u.LastName
	}
	return nil
}
