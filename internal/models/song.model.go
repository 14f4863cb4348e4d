package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Song is a suggestion in a band's voting pool. Catalog metadata is filled
// from the external track lookup at suggestion time and treated as read-only
// afterwards.
type Song struct {
	BaseUUIDModel
	BandID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_songs_band" json:"bandId"`
	Band          Band       `gorm:"foreignKey:BandID"                       json:"band"`
	SuggestedByID *uuid.UUID `gorm:"type:uuid"                               json:"suggestedById,omitempty"`
	SuggestedBy   *User      `gorm:"foreignKey:SuggestedByID"                json:"suggestedBy,omitempty"`
	Title         string     `gorm:"type:text;not null"                      json:"title"`
	Artist        string     `gorm:"type:text;not null"                      json:"artist"`
	Album         string     `gorm:"type:text"                               json:"album"`
	ArtworkURL    string     `gorm:"type:text"                               json:"artworkUrl"`
	DurationMs    int        `gorm:"type:integer;default:0"                  json:"durationMs"`
	CatalogRef    string     `gorm:"type:text;index"                         json:"catalogRef"`
}

func (s *Song) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Title == "" {
		return gorm.ErrInvalidValue
	}
	if s.Artist == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
