package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RehearsalStatus string

const (
	RehearsalStatusPlanning      RehearsalStatus = "planning"
	RehearsalStatusSongsSelected RehearsalStatus = "songs_selected"
	RehearsalStatusCompleted     RehearsalStatus = "completed"
)

type Rehearsal struct {
	BaseUUIDModel
	BandID            uuid.UUID       `gorm:"type:uuid;not null;index"                              json:"bandId"`
	Band              Band            `gorm:"foreignKey:BandID"                                     json:"band"`
	SeriesID          *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_rehearsals_series_date"      json:"seriesId,omitempty"`
	Name              string          `gorm:"type:text;not null"                                    json:"name"`
	Description       string          `gorm:"type:text"                                             json:"description"`
	Location          string          `gorm:"type:text"                                             json:"location"`
	Date              time.Time       `gorm:"not null;index;uniqueIndex:idx_rehearsals_series_date" json:"date"`
	SongsToLearn      int             `gorm:"type:integer;not null;default:5"                       json:"songsToLearn"`
	Status            RehearsalStatus `gorm:"type:text;not null;default:'planning'"                 json:"status"`
	SelectionDeadline *time.Time      `gorm:"type:timestamp"                                        json:"selectionDeadline,omitempty"`

	Setlist []SetlistItem `gorm:"foreignKey:RehearsalID" json:"setlist,omitempty"`
}

func (r *Rehearsal) BeforeCreate(tx *gorm.DB) (err error) {
	if r.Name == "" {
		return gorm.ErrInvalidValue
	}
	if r.SongsToLearn <= 0 {
		r.SongsToLearn = 5
	}
	if r.Status == "" {
		r.Status = RehearsalStatusPlanning
	}
	return nil
}
