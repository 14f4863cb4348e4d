package leaderboardController

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"encore/config"
	"encore/internal/database"
	"encore/internal/logger"
	. "encore/internal/models"
	"encore/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// NearTieThreshold is the averageRating distance under which two songs
	// count as tied and volume (totalRatings) decides instead.
	NearTieThreshold = 0.1

	LEADERBOARD_CACHE_PREFIX = "leaderboard"
	LEADERBOARD_CACHE_EXPIRY = 5 * time.Minute
)

var nearTieThreshold = decimal.NewFromFloat(NearTieThreshold)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeWeek  Scope = "week"
	ScopeMonth Scope = "month"
)

type Ordering string

const (
	OrderingDefault      Ordering = "default"
	OrderingNewest       Ordering = "newest"
	OrderingAlphabetical Ordering = "alphabetical"
	OrderingTrending     Ordering = "trending"
)

// Entry is one leaderboard row: the song, its derived aggregate, and the
// requesting member's own ballot if they have one.
type Entry struct {
	Song Song `json:"song"`
	SongAggregate
	UserVote *VoteType `json:"userVote,omitempty"`
}

type LeaderboardControllerInterface interface {
	GetLeaderboard(ctx context.Context, user *User, bandID uuid.UUID, scope Scope, ordering Ordering) ([]Entry, error)
	DefaultRanking(ctx context.Context, bandID uuid.UUID) ([]Entry, error)
	InvalidateBand(ctx context.Context, bandID uuid.UUID)
}

type LeaderboardController struct {
	voteRepo repositories.VoteRepository
	songRepo repositories.SongRepository
	bandRepo repositories.BandRepository
	cache    database.CacheClient
	db       database.DB
	Config   config.Config
}

func New(
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) LeaderboardControllerInterface {
	return &LeaderboardController{
		voteRepo: repos.Vote,
		songRepo: repos.Song,
		bandRepo: repos.Band,
		cache:    db.Cache.General,
		db:       db,
		Config:   config,
	}
}

// ParseScope maps a query value onto a scope, defaulting to all-time.
func ParseScope(raw string) Scope {
	switch Scope(strings.ToLower(raw)) {
	case ScopeWeek:
		return ScopeWeek
	case ScopeMonth:
		return ScopeMonth
	default:
		return ScopeAll
	}
}

// ParseOrdering maps a query value onto an ordering, defaulting to the
// ranking order.
func ParseOrdering(raw string) Ordering {
	switch Ordering(strings.ToLower(raw)) {
	case OrderingNewest:
		return OrderingNewest
	case OrderingAlphabetical:
		return OrderingAlphabetical
	case OrderingTrending:
		return OrderingTrending
	default:
		return OrderingDefault
	}
}

func (s Scope) since(now time.Time) *time.Time {
	switch s {
	case ScopeWeek:
		t := now.AddDate(0, 0, -7)
		return &t
	case ScopeMonth:
		t := now.AddDate(0, -1, 0)
		return &t
	}
	return nil
}

// GetLeaderboard returns the band's songs in the requested ordering. Only
// the default ordering is a ranking; the others are display sorts over the
// same aggregates and never feed auto-selection.
func (c *LeaderboardController) GetLeaderboard(
	ctx context.Context,
	user *User,
	bandID uuid.UUID,
	scope Scope,
	ordering Ordering,
) ([]Entry, error) {
	log := logger.NewWithContext(ctx, "leaderboardController").Function("GetLeaderboard")

	if bandID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "bandId is required")
	}

	entries, err := c.buildEntries(ctx, c.db.SQL, bandID, scope)
	if err != nil {
		return nil, err
	}

	switch ordering {
	case OrderingNewest:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Song.CreatedAt.After(entries[j].Song.CreatedAt)
		})
	case OrderingAlphabetical:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Song.Title) < strings.ToLower(entries[j].Song.Title)
		})
	case OrderingTrending:
		trending, err := c.trendingNetScores(ctx, bandID)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return trending[entries[i].Song.ID] > trending[entries[j].Song.ID]
		})
	default:
		SortByRank(entries)
	}

	if user != nil {
		if err := c.attachUserVotes(ctx, entries, user.ID, bandID); err != nil {
			log.Warn("failed to attach user votes", "userID", user.ID, "error", err)
		}
	}

	return entries, nil
}

// DefaultRanking is the ranking the auto-selector consumes: all-time scope,
// default ordering, no user decoration.
func (c *LeaderboardController) DefaultRanking(
	ctx context.Context,
	bandID uuid.UUID,
) ([]Entry, error) {
	entries, err := c.buildEntries(ctx, c.db.SQL, bandID, ScopeAll)
	if err != nil {
		return nil, err
	}

	SortByRank(entries)
	return entries, nil
}

// InvalidateBand drops the band's cached aggregates after a vote write.
func (c *LeaderboardController) InvalidateBand(ctx context.Context, bandID uuid.UUID) {
	log := logger.NewWithContext(ctx, "leaderboardController").Function("InvalidateBand")

	for _, scope := range []Scope{ScopeAll, ScopeWeek, ScopeMonth} {
		err := database.NewCacheBuilder(c.cache, c.cacheKey(bandID, scope)).
			WithContext(ctx).
			WithHash(LEADERBOARD_CACHE_PREFIX).
			Delete()
		if err != nil {
			log.Warn("failed to invalidate leaderboard cache",
				"bandID", bandID, "scope", scope, "error", err)
		}
	}
}

func (c *LeaderboardController) cacheKey(bandID uuid.UUID, scope Scope) string {
	return bandID.String() + ":" + string(scope)
}

// buildEntries joins every song in the band with its vote aggregate.
// Unvoted songs get a zero aggregate so they still appear (and rank last).
func (c *LeaderboardController) buildEntries(
	ctx context.Context,
	tx *gorm.DB,
	bandID uuid.UUID,
	scope Scope,
) ([]Entry, error) {
	log := logger.NewWithContext(ctx, "leaderboardController").Function("buildEntries")

	var cached []Entry
	found, err := database.NewCacheBuilder(c.cache, c.cacheKey(bandID, scope)).
		WithContext(ctx).
		WithHash(LEADERBOARD_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to read leaderboard cache", "bandID", bandID, "error", err)
	}
	if found {
		return cached, nil
	}

	songs, err := c.songRepo.GetByBand(ctx, tx, bandID)
	if err != nil {
		return nil, err
	}

	aggregates, err := c.voteRepo.AggregatesForBand(ctx, tx, bandID, scope.since(time.Now().UTC()))
	if err != nil {
		return nil, err
	}

	bySong := make(map[uuid.UUID]SongAggregate, len(aggregates))
	for _, aggregate := range aggregates {
		bySong[aggregate.SongID] = aggregate
	}

	entries := make([]Entry, 0, len(songs))
	for _, song := range songs {
		aggregate, ok := bySong[song.ID]
		if !ok {
			aggregate = NewSongAggregate(song.ID, 0, 0)
		}
		entries = append(entries, Entry{Song: *song, SongAggregate: aggregate})
	}

	err = database.NewCacheBuilder(c.cache, c.cacheKey(bandID, scope)).
		WithContext(ctx).
		WithHash(LEADERBOARD_CACHE_PREFIX).
		WithStruct(entries).
		WithTTL(LEADERBOARD_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to cache leaderboard", "bandID", bandID, "error", err)
	}

	return entries, nil
}

func (c *LeaderboardController) trendingNetScores(
	ctx context.Context,
	bandID uuid.UUID,
) (map[uuid.UUID]int, error) {
	since := time.Now().UTC().AddDate(0, 0, -7)
	aggregates, err := c.voteRepo.AggregatesForBand(ctx, c.db.SQL, bandID, &since)
	if err != nil {
		return nil, err
	}

	scores := make(map[uuid.UUID]int, len(aggregates))
	for _, aggregate := range aggregates {
		scores[aggregate.SongID] = aggregate.NetScore
	}
	return scores, nil
}

func (c *LeaderboardController) attachUserVotes(
	ctx context.Context,
	entries []Entry,
	userID, bandID uuid.UUID,
) error {
	votes, err := c.voteRepo.GetVoterVotes(ctx, c.db.SQL, userID, bandID)
	if err != nil {
		return err
	}

	bySong := make(map[uuid.UUID]VoteType, len(votes))
	for _, vote := range votes {
		bySong[vote.SongID] = vote.Type
	}

	for i := range entries {
		if voteType, ok := bySong[entries[i].Song.ID]; ok {
			t := voteType
			entries[i].UserVote = &t
		}
	}

	return nil
}

// SortByRank orders entries by the default ranking: averageRating
// descending, with near-ties (difference under NearTieThreshold) decided by
// totalRatings descending. Net score and song ID keep the order fully
// deterministic. The threshold comparison runs on decimals so that a pair
// sitting exactly 0.1 apart (4.1 vs 4.0) is not a tie; float64 subtraction
// lands just under 0.1 for such pairs.
func SortByRank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		diff := decimal.NewFromFloat(a.AverageRating).
			Sub(decimal.NewFromFloat(b.AverageRating)).
			Abs()
		if diff.LessThan(nearTieThreshold) {
			if a.TotalRatings != b.TotalRatings {
				return a.TotalRatings > b.TotalRatings
			}
			if a.NetScore != b.NetScore {
				return a.NetScore > b.NetScore
			}
			return a.Song.ID.String() < b.Song.ID.String()
		}

		return a.AverageRating > b.AverageRating
	})
}
