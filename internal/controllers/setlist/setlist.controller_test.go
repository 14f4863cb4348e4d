package setlistController

import (
	"context"
	"sort"
	"testing"

	"encore/internal/events"
	. "encore/internal/models"

	leaderboardController "encore/internal/controllers/leaderboard"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func item(position int) *SetlistItem {
	return &SetlistItem{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Position:      position,
	}
}

func TestValidateReorder(t *testing.T) {
	a, b, c := item(1), item(2), item(3)
	existing := []*SetlistItem{a, b, c}

	testCases := []struct {
		name      string
		positions map[uuid.UUID]int
		wantError bool
	}{
		{
			name:      "complete permutation accepted",
			positions: map[uuid.UUID]int{a.ID: 3, b.ID: 1, c.ID: 2},
			wantError: false,
		},
		{
			name:      "identity permutation accepted",
			positions: map[uuid.UUID]int{a.ID: 1, b.ID: 2, c.ID: 3},
			wantError: false,
		},
		{
			name:      "missing item rejected",
			positions: map[uuid.UUID]int{a.ID: 1, b.ID: 2},
			wantError: true,
		},
		{
			name:      "foreign item rejected",
			positions: map[uuid.UUID]int{a.ID: 1, b.ID: 2, uuid.New(): 3},
			wantError: true,
		},
		{
			name:      "duplicate position rejected",
			positions: map[uuid.UUID]int{a.ID: 1, b.ID: 1, c.ID: 3},
			wantError: true,
		},
		{
			name:      "gap in positions rejected",
			positions: map[uuid.UUID]int{a.ID: 1, b.ID: 2, c.ID: 4},
			wantError: true,
		},
		{
			name:      "zero position rejected",
			positions: map[uuid.UUID]int{a.ID: 0, b.ID: 1, c.ID: 2},
			wantError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateReorder(existing, tc.positions)
			if tc.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReorderEmptySetlist(t *testing.T) {
	assert.NoError(t, validateReorder(nil, map[uuid.UUID]int{}))
	assert.Error(t, validateReorder(nil, map[uuid.UUID]int{uuid.New(): 1}))
}

// In-memory stand-ins for the injected interfaces, used by the auto-select
// tests below.

type fakeSetlistRepo struct {
	items []*SetlistItem
}

func (r *fakeSetlistRepo) GetByRehearsal(_ context.Context, _ *gorm.DB, rehearsalID uuid.UUID) ([]*SetlistItem, error) {
	var items []*SetlistItem
	for _, it := range r.items {
		if it.RehearsalID == rehearsalID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (r *fakeSetlistRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*SetlistItem, error) {
	for _, it := range r.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, nil
}

func (r *fakeSetlistRepo) Create(_ context.Context, _ *gorm.DB, item *SetlistItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, item)
	return nil
}

func (r *fakeSetlistRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	kept := r.items[:0]
	for _, it := range r.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeSetlistRepo) ClearForRehearsal(_ context.Context, _ *gorm.DB, rehearsalID uuid.UUID) error {
	kept := r.items[:0]
	for _, it := range r.items {
		if it.RehearsalID != rehearsalID {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeSetlistRepo) InsertBatch(_ context.Context, _ *gorm.DB, items []*SetlistItem) error {
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		r.items = append(r.items, it)
	}
	return nil
}

func (r *fakeSetlistRepo) UpdatePosition(_ context.Context, _ *gorm.DB, id uuid.UUID, position int) error {
	for _, it := range r.items {
		if it.ID == id {
			it.Position = position
		}
	}
	return nil
}

type fakeRehearsalRepo struct {
	rehearsals map[uuid.UUID]*Rehearsal
}

func (r *fakeRehearsalRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*Rehearsal, error) {
	return r.rehearsals[id], nil
}

func (r *fakeRehearsalRepo) GetByBand(_ context.Context, _ *gorm.DB, bandID uuid.UUID) ([]*Rehearsal, error) {
	return nil, nil
}

func (r *fakeRehearsalRepo) Create(_ context.Context, _ *gorm.DB, rehearsal *Rehearsal) error {
	r.rehearsals[rehearsal.ID] = rehearsal
	return nil
}

func (r *fakeRehearsalRepo) CreateBatch(_ context.Context, _ *gorm.DB, rehearsals []*Rehearsal) error {
	for _, rehearsal := range rehearsals {
		r.rehearsals[rehearsal.ID] = rehearsal
	}
	return nil
}

func (r *fakeRehearsalRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status RehearsalStatus) error {
	if rehearsal, ok := r.rehearsals[id]; ok {
		rehearsal.Status = status
	}
	return nil
}

func (r *fakeRehearsalRepo) ExistingSeriesDates(_ context.Context, _ *gorm.DB, seriesID uuid.UUID) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

type fakeRanking struct {
	entries []leaderboardController.Entry
}

func (l *fakeRanking) GetLeaderboard(_ context.Context, _ *User, _ uuid.UUID, _ leaderboardController.Scope, _ leaderboardController.Ordering) ([]leaderboardController.Entry, error) {
	return l.entries, nil
}

func (l *fakeRanking) DefaultRanking(_ context.Context, _ uuid.UUID) ([]leaderboardController.Entry, error) {
	return l.entries, nil
}

func (l *fakeRanking) InvalidateBand(_ context.Context, _ uuid.UUID) {}

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

func rankedEntry(title string, netScore int) leaderboardController.Entry {
	return leaderboardController.Entry{
		Song: Song{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Title:         title,
		},
		SongAggregate: SongAggregate{NetScore: netScore},
	}
}

type setlistFixture struct {
	controller  *SetlistController
	rehearsal   *Rehearsal
	setlistRepo *fakeSetlistRepo
	ranking     *fakeRanking
	publisher   *capturePublisher
}

func newSetlistFixture(songsToLearn int, entries ...leaderboardController.Entry) *setlistFixture {
	rehearsal := &Rehearsal{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		BandID:        uuid.New(),
		Name:          "Friday practice",
		SongsToLearn:  songsToLearn,
		Status:        RehearsalStatusPlanning,
	}

	setlistRepo := &fakeSetlistRepo{}
	ranking := &fakeRanking{entries: entries}
	publisher := &capturePublisher{}

	controller := &SetlistController{
		setlistRepo:        setlistRepo,
		rehearsalRepo:      &fakeRehearsalRepo{rehearsals: map[uuid.UUID]*Rehearsal{rehearsal.ID: rehearsal}},
		transactionService: passthroughTx{},
		leaderboard:        ranking,
		eventBus:           publisher,
	}

	return &setlistFixture{
		controller:  controller,
		rehearsal:   rehearsal,
		setlistRepo: setlistRepo,
		ranking:     ranking,
		publisher:   publisher,
	}
}

func TestAutoSelectReplacesSetlist(t *testing.T) {
	f := newSetlistFixture(3,
		rankedEntry("first", 12),
		rankedEntry("second", 8),
		rankedEntry("third", 5),
		rankedEntry("fourth", 2),
		rankedEntry("fifth", -1),
	)

	// A leftover manual pick must not survive the replacement.
	stale := &SetlistItem{
		BaseUUIDModel:   BaseUUIDModel{ID: uuid.New()},
		RehearsalID:     f.rehearsal.ID,
		SongID:          uuid.New(),
		Position:        1,
		SelectionReason: SelectionReasonManual,
	}
	f.setlistRepo.items = append(f.setlistRepo.items, stale)

	items, err := f.controller.AutoSelect(context.Background(), f.rehearsal.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, it := range items {
		assert.Equal(t, i+1, it.Position)
		assert.Equal(t, f.ranking.entries[i].Song.ID, it.SongID)
		assert.Equal(t, f.ranking.entries[i].NetScore, it.VoteCountAtSelection)
		assert.Equal(t, SelectionReasonAuto, it.SelectionReason)
		assert.NotEqual(t, stale.ID, it.ID)
	}

	assert.Equal(t, RehearsalStatusSongsSelected, f.rehearsal.Status)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.SETLIST_REPLACED, f.publisher.published[0].Type)
}

func TestAutoSelectTruncatesToAvailableSongs(t *testing.T) {
	f := newSetlistFixture(5,
		rankedEntry("only", 4),
		rankedEntry("other", 1),
	)

	items, err := f.controller.AutoSelect(context.Background(), f.rehearsal.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Position)
	assert.Equal(t, 2, items[1].Position)
}

func TestAutoSelectNoSongsLeavesSetlistIntact(t *testing.T) {
	f := newSetlistFixture(3)

	existing := &SetlistItem{
		BaseUUIDModel:   BaseUUIDModel{ID: uuid.New()},
		RehearsalID:     f.rehearsal.ID,
		SongID:          uuid.New(),
		Position:        1,
		SelectionReason: SelectionReasonManual,
	}
	f.setlistRepo.items = append(f.setlistRepo.items, existing)

	_, err := f.controller.AutoSelect(context.Background(), f.rehearsal.ID)
	require.ErrorIs(t, err, ErrNoSongsAvailable)

	remaining, err := f.setlistRepo.GetByRehearsal(context.Background(), nil, f.rehearsal.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, existing.ID, remaining[0].ID)
	assert.Equal(t, RehearsalStatusPlanning, f.rehearsal.Status)
}
