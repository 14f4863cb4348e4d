package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const SelectionReasonAuto = "Auto-selected from leaderboard"
const SelectionReasonManual = "Manually added"

// SetlistItem pins a song to a rehearsal slot. Positions within one rehearsal
// stay a dense 1..N sequence; VoteCountAtSelection is a historical snapshot
// and is never recomputed.
type SetlistItem struct {
	BaseUUIDModel
	RehearsalID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_setlist_rehearsal_song" json:"rehearsalId"`
	SongID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_setlist_rehearsal_song" json:"songId"`
	Song                 Song      `gorm:"foreignKey:SongID"                                         json:"song"`
	Position             int       `gorm:"type:integer;not null"                                     json:"position"`
	SelectionReason      string    `gorm:"type:text"                                                 json:"selectionReason"`
	VoteCountAtSelection int       `gorm:"type:integer;not null;default:0"                           json:"voteCountAtSelection"`
}

func (s *SetlistItem) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Position < 1 {
		return gorm.ErrInvalidValue
	}
	return nil
}
