package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxVotesPerWindow caps votes per (user, band) inside one fixed window.
const (
	MaxVotesPerWindow = 50
	RateWindowLength  = time.Hour
)

// RateWindow is the persisted fixed-window counter. Created lazily on a
// user's first vote in a band and rolled forward in place when the window
// expires; the unique index keeps one row per (user, band).
type RateWindow struct {
	BaseUUIDModel
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rate_windows_user_band" json:"userId"`
	BandID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rate_windows_user_band" json:"bandId"`
	WindowStart time.Time `gorm:"not null"                                                  json:"windowStart"`
	VoteCount   int       `gorm:"type:integer;not null;default:0"                           json:"voteCount"`
}

// ResetAt is the instant the current window expires.
func (w *RateWindow) ResetAt() time.Time {
	return w.WindowStart.Add(RateWindowLength)
}

// Expired reports whether the window has rolled past its hour at the given
// instant.
func (w *RateWindow) Expired(now time.Time) bool {
	return !now.Before(w.ResetAt())
}

// VoteAllowance is the outcome of a rate-limit consume attempt. A denied
// attempt is a normal result the caller branches on, not an error.
type VoteAllowance struct {
	Allowed        bool      `json:"allowed"`
	VotesRemaining int       `json:"votesRemaining"`
	ResetAt        time.Time `json:"resetAt"`
}
