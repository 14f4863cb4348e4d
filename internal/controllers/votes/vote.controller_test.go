package voteController

import (
	"context"
	"testing"
	"time"

	"encore/internal/events"
	. "encore/internal/models"

	leaderboardController "encore/internal/controllers/leaderboard"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// In-memory stand-ins for the injected interfaces. The rate window fake
// mirrors the repository's fixed-window contract: roll an expired window
// forward, increment under the cap, deny at the cap.

type fakeSongRepo struct {
	songs map[uuid.UUID]*Song
}

func (r *fakeSongRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*Song, error) {
	return r.songs[id], nil
}

func (r *fakeSongRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*Song, error) {
	found := make(map[uuid.UUID]*Song)
	for _, id := range ids {
		if song, ok := r.songs[id]; ok {
			found[id] = song
		}
	}
	return found, nil
}

func (r *fakeSongRepo) GetByBand(_ context.Context, _ *gorm.DB, bandID uuid.UUID) ([]*Song, error) {
	var songs []*Song
	for _, song := range r.songs {
		if song.BandID == bandID {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (r *fakeSongRepo) Create(_ context.Context, _ *gorm.DB, song *Song) error {
	r.songs[song.ID] = song
	return nil
}

type fakeVoteRepo struct {
	votes map[string]*Vote
}

func ballotKey(voterID, songID uuid.UUID) string {
	return voterID.String() + ":" + songID.String()
}

func (r *fakeVoteRepo) Upsert(_ context.Context, _ *gorm.DB, vote *Vote) error {
	key := ballotKey(vote.VoterID, vote.SongID)
	if existing, ok := r.votes[key]; ok {
		existing.Type = vote.Type
		return nil
	}
	stored := *vote
	r.votes[key] = &stored
	return nil
}

func (r *fakeVoteRepo) Delete(_ context.Context, _ *gorm.DB, voterID, songID uuid.UUID) (bool, error) {
	key := ballotKey(voterID, songID)
	if _, ok := r.votes[key]; !ok {
		return false, nil
	}
	delete(r.votes, key)
	return true, nil
}

func (r *fakeVoteRepo) GetByVoterAndSong(_ context.Context, _ *gorm.DB, voterID, songID uuid.UUID) (*Vote, error) {
	return r.votes[ballotKey(voterID, songID)], nil
}

func (r *fakeVoteRepo) GetVoterVotes(_ context.Context, _ *gorm.DB, voterID, bandID uuid.UUID) ([]*Vote, error) {
	var votes []*Vote
	for _, vote := range r.votes {
		if vote.VoterID == voterID && vote.BandID == bandID {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

func (r *fakeVoteRepo) AggregateForSong(_ context.Context, _ *gorm.DB, songID uuid.UUID, _ *time.Time) (SongAggregate, error) {
	upvotes, downvotes := 0, 0
	for _, vote := range r.votes {
		if vote.SongID != songID {
			continue
		}
		if vote.Type == VoteTypeUp {
			upvotes++
		} else {
			downvotes++
		}
	}
	return NewSongAggregate(songID, upvotes, downvotes), nil
}

func (r *fakeVoteRepo) AggregatesForBand(_ context.Context, _ *gorm.DB, bandID uuid.UUID, _ *time.Time) ([]SongAggregate, error) {
	return nil, nil
}

type fakeRateWindowRepo struct {
	windows map[string]*RateWindow
}

func windowKey(userID, bandID uuid.UUID) string {
	return userID.String() + ":" + bandID.String()
}

func (r *fakeRateWindowRepo) TryConsume(_ context.Context, _ *gorm.DB, userID, bandID uuid.UUID, now time.Time) (VoteAllowance, error) {
	key := windowKey(userID, bandID)
	window, ok := r.windows[key]
	if !ok {
		window = &RateWindow{UserID: userID, BandID: bandID, WindowStart: now}
		r.windows[key] = window
	}

	if window.Expired(now) {
		window.WindowStart = now
		window.VoteCount = 0
	}

	if window.VoteCount >= MaxVotesPerWindow {
		return VoteAllowance{
			Allowed:        false,
			VotesRemaining: 0,
			ResetAt:        window.ResetAt(),
		}, nil
	}

	window.VoteCount++
	return VoteAllowance{
		Allowed:        true,
		VotesRemaining: MaxVotesPerWindow - window.VoteCount,
		ResetAt:        window.ResetAt(),
	}, nil
}

func (r *fakeRateWindowRepo) Get(_ context.Context, _ *gorm.DB, userID, bandID uuid.UUID) (*RateWindow, error) {
	window, ok := r.windows[windowKey(userID, bandID)]
	if !ok {
		return nil, nil
	}
	return window, nil
}

type fakeLeaderboard struct {
	invalidated []uuid.UUID
}

func (l *fakeLeaderboard) GetLeaderboard(_ context.Context, _ *User, _ uuid.UUID, _ leaderboardController.Scope, _ leaderboardController.Ordering) ([]leaderboardController.Entry, error) {
	return nil, nil
}

func (l *fakeLeaderboard) DefaultRanking(_ context.Context, _ uuid.UUID) ([]leaderboardController.Entry, error) {
	return nil, nil
}

func (l *fakeLeaderboard) InvalidateBand(_ context.Context, bandID uuid.UUID) {
	l.invalidated = append(l.invalidated, bandID)
}

type passthroughTx struct{}

func (passthroughTx) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	return fn(ctx, nil)
}

type capturePublisher struct {
	published []events.Event
}

func (p *capturePublisher) Publish(_ events.Channel, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

type voteFixture struct {
	controller  *VoteController
	user        *User
	band        uuid.UUID
	song        *Song
	voteRepo    *fakeVoteRepo
	windowRepo  *fakeRateWindowRepo
	leaderboard *fakeLeaderboard
	publisher   *capturePublisher
}

func newVoteFixture() *voteFixture {
	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, IsActive: true}
	bandID := uuid.New()
	song := &Song{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		BandID:        bandID,
		Title:         "Panic Station",
	}

	voteRepo := &fakeVoteRepo{votes: make(map[string]*Vote)}
	windowRepo := &fakeRateWindowRepo{windows: make(map[string]*RateWindow)}
	leaderboard := &fakeLeaderboard{}
	publisher := &capturePublisher{}

	controller := &VoteController{
		voteRepo:           voteRepo,
		rateWindowRepo:     windowRepo,
		songRepo:           &fakeSongRepo{songs: map[uuid.UUID]*Song{song.ID: song}},
		transactionService: passthroughTx{},
		leaderboard:        leaderboard,
		eventBus:           publisher,
	}

	return &voteFixture{
		controller:  controller,
		user:        user,
		band:        bandID,
		song:        song,
		voteRepo:    voteRepo,
		windowRepo:  windowRepo,
		leaderboard: leaderboard,
		publisher:   publisher,
	}
}

func (f *voteFixture) addSong(title string) *Song {
	song := &Song{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		BandID:        f.band,
		Title:         title,
	}
	f.controller.songRepo.(*fakeSongRepo).songs[song.ID] = song
	return song
}

func (f *voteFixture) cast(t *testing.T, songID uuid.UUID, voteType VoteType) *VoteOutcome {
	t.Helper()
	outcome, err := f.controller.CastVote(context.Background(), f.user, &CastVoteRequest{
		SongID: songID,
		Type:   &voteType,
	})
	require.NoError(t, err)
	return outcome
}

func TestCastVoteWindowBoundary(t *testing.T) {
	f := newVoteFixture()

	for range MaxVotesPerWindow - 1 {
		outcome := f.cast(t, f.song.ID, VoteTypeUp)
		require.Equal(t, OutcomeAccepted, outcome.Status)
	}

	// The final vote under the cap lands with nothing left over.
	outcome := f.cast(t, f.song.ID, VoteTypeUp)
	assert.Equal(t, OutcomeAccepted, outcome.Status)
	assert.Equal(t, 0, outcome.Allowance.VotesRemaining)

	// One more is denied, carries the reset time, and writes no ballot.
	other := f.addSong("Uprising")
	outcome = f.cast(t, other.ID, VoteTypeDown)
	assert.Equal(t, OutcomeRateLimited, outcome.Status)
	assert.False(t, outcome.Allowance.Allowed)
	assert.Nil(t, outcome.Aggregate)

	window := f.windowRepo.windows[windowKey(f.user.ID, f.band)]
	assert.Equal(t, window.ResetAt(), outcome.Allowance.ResetAt)
	assert.Equal(t, MaxVotesPerWindow, window.VoteCount)

	vote, err := f.voteRepo.GetByVoterAndSong(context.Background(), nil, f.user.ID, other.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestCastVoteExpiredWindowResetsCount(t *testing.T) {
	f := newVoteFixture()

	f.windowRepo.windows[windowKey(f.user.ID, f.band)] = &RateWindow{
		UserID:      f.user.ID,
		BandID:      f.band,
		WindowStart: time.Now().UTC().Add(-(RateWindowLength + time.Second)),
		VoteCount:   MaxVotesPerWindow,
	}

	outcome := f.cast(t, f.song.ID, VoteTypeUp)
	assert.Equal(t, OutcomeAccepted, outcome.Status)
	assert.Equal(t, MaxVotesPerWindow-1, outcome.Allowance.VotesRemaining)

	window := f.windowRepo.windows[windowKey(f.user.ID, f.band)]
	assert.Equal(t, 1, window.VoteCount)
}

func TestCastVoteReplacesExistingBallot(t *testing.T) {
	f := newVoteFixture()

	f.cast(t, f.song.ID, VoteTypeUp)
	f.cast(t, f.song.ID, VoteTypeUp)
	outcome := f.cast(t, f.song.ID, VoteTypeDown)

	require.Equal(t, OutcomeAccepted, outcome.Status)
	assert.Equal(t, 1, outcome.Aggregate.TotalRatings)
	assert.Equal(t, 0, outcome.Aggregate.UpvoteCount)
	assert.Equal(t, 1, outcome.Aggregate.DownvoteCount)
	assert.Equal(t, -1, outcome.Aggregate.NetScore)

	// Every cast consumes budget even when it replaces a prior ballot.
	assert.Equal(t, MaxVotesPerWindow-3, outcome.Allowance.VotesRemaining)
	assert.Len(t, f.leaderboard.invalidated, 3)
}

func TestRemoveVoteIsIdempotentAndFree(t *testing.T) {
	f := newVoteFixture()

	f.cast(t, f.song.ID, VoteTypeUp)

	outcome, err := f.controller.RemoveVote(context.Background(), f.user, f.song.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome.Status)
	assert.Equal(t, 0, outcome.Aggregate.TotalRatings)

	// Removal does not touch the window.
	allowance, err := f.controller.GetAllowance(context.Background(), f.user, f.band)
	require.NoError(t, err)
	assert.Equal(t, MaxVotesPerWindow-1, allowance.VotesRemaining)

	// Removing an absent ballot still succeeds but publishes nothing new.
	outcome, err = f.controller.RemoveVote(context.Background(), f.user, f.song.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome.Status)

	removedEvents := 0
	for _, event := range f.publisher.published {
		if event.Type == events.VOTE_REMOVED {
			removedEvents++
		}
	}
	assert.Equal(t, 1, removedEvents)
}

func TestCastVoteNilTypeRemoves(t *testing.T) {
	f := newVoteFixture()

	f.cast(t, f.song.ID, VoteTypeUp)

	outcome, err := f.controller.CastVote(context.Background(), f.user, &CastVoteRequest{
		SongID: f.song.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome.Status)
	assert.Equal(t, 0, outcome.Aggregate.TotalRatings)
}
