package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Band struct {
	BaseUUIDModel
	Name        string    `gorm:"type:text;not null"       json:"name"`
	Description string    `gorm:"type:text"                json:"description"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	Owner       User      `gorm:"foreignKey:OwnerID"       json:"owner"`
}

func (b *Band) BeforeCreate(tx *gorm.DB) (err error) {
	if b.Name == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
