package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VoteType string

const (
	VoteTypeUp   VoteType = "upvote"
	VoteTypeDown VoteType = "downvote"
)

// Rating values implied by a vote. Aggregates average these, so the
// leaderboard's near-tie threshold operates on a 1-5 scale.
const (
	UpvoteRating   = 5.0
	DownvoteRating = 1.0
)

// Vote is the single ballot a member holds per song. The unique index on
// (voter_id, song_id) is what makes castVote an upsert rather than an append.
type Vote struct {
	BaseUUIDModel
	VoterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_voter_song" json:"voterId"`
	Voter   User      `gorm:"foreignKey:VoterID"                                  json:"voter"`
	SongID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_voter_song" json:"songId"`
	Song    Song      `gorm:"foreignKey:SongID"                                   json:"song"`
	BandID  uuid.UUID `gorm:"type:uuid;not null;index"                            json:"bandId"`
	Type    VoteType  `gorm:"type:text;not null"                                  json:"type"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) (err error) {
	if v.Type != VoteTypeUp && v.Type != VoteTypeDown {
		return gorm.ErrInvalidValue
	}
	return nil
}

// Rating returns the implicit 1-5 rating this vote contributes to averages.
func (v *Vote) Rating() float64 {
	if v.Type == VoteTypeUp {
		return UpvoteRating
	}
	return DownvoteRating
}

// SongAggregate is derived from the vote set on read, never stored
// authoritatively.
type SongAggregate struct {
	SongID        uuid.UUID `json:"songId"`
	UpvoteCount   int       `json:"upvoteCount"`
	DownvoteCount int       `json:"downvoteCount"`
	NetScore      int       `json:"netScore"`
	AverageRating float64   `json:"averageRating"`
	TotalRatings  int       `json:"totalRatings"`
}

// NewSongAggregate derives the full aggregate from raw vote counts. The
// average is computed with decimal arithmetic so repeated aggregation cannot
// drift across reads of the same vote set.
func NewSongAggregate(songID uuid.UUID, upvotes, downvotes int) SongAggregate {
	aggregate := SongAggregate{
		SongID:        songID,
		UpvoteCount:   upvotes,
		DownvoteCount: downvotes,
		NetScore:      upvotes - downvotes,
		TotalRatings:  upvotes + downvotes,
	}

	if aggregate.TotalRatings > 0 {
		sum := decimal.NewFromFloat(UpvoteRating).Mul(decimal.NewFromInt(int64(upvotes))).
			Add(decimal.NewFromFloat(DownvoteRating).Mul(decimal.NewFromInt(int64(downvotes))))
		average, _ := sum.Div(decimal.NewFromInt(int64(aggregate.TotalRatings))).
			Round(4).
			Float64()
		aggregate.AverageRating = average
	}

	return aggregate
}
