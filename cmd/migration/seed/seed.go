package seed

import (
	"time"

	"encore/config"
	. "encore/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"gorm.io/gorm"
)

// Seed loads a small working dataset for local development: one band, four
// members, a handful of songs with votes, and a weekly rehearsal series.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("Seed")

	if config.Environment == "production" {
		return log.ErrMsg("refusing to seed a production database")
	}

	users := []*User{
		{FirstName: "Dana", LastName: "Reyes", DisplayName: "Dana", Email: ptr("dana@example.com")},
		{FirstName: "Sam", LastName: "Okafor", DisplayName: "Sam", Email: ptr("sam@example.com")},
		{FirstName: "Priya", LastName: "Nair", DisplayName: "Priya", Email: ptr("priya@example.com")},
		{FirstName: "Theo", LastName: "Lindqvist", DisplayName: "Theo", Email: ptr("theo@example.com")},
	}
	for _, user := range users {
		if err := db.Create(user).Error; err != nil {
			return log.Err("failed to seed user", err, "email", *user.Email)
		}
	}

	band := &Band{Name: "The Midnight Layover", OwnerID: users[0].ID}
	if err := db.Create(band).Error; err != nil {
		return log.Err("failed to seed band", err)
	}

	songs := []*Song{
		{BandID: band.ID, SuggestedByID: &users[0].ID, Title: "Everlong", Artist: "Foo Fighters"},
		{BandID: band.ID, SuggestedByID: &users[1].ID, Title: "Dreams", Artist: "Fleetwood Mac"},
		{BandID: band.ID, SuggestedByID: &users[1].ID, Title: "Seven Nation Army", Artist: "The White Stripes"},
		{BandID: band.ID, SuggestedByID: &users[2].ID, Title: "Valerie", Artist: "Amy Winehouse"},
		{BandID: band.ID, SuggestedByID: &users[3].ID, Title: "Take Me Out", Artist: "Franz Ferdinand"},
		{BandID: band.ID, SuggestedByID: &users[3].ID, Title: "Maps", Artist: "Yeah Yeah Yeahs"},
	}
	for _, song := range songs {
		if err := db.Create(song).Error; err != nil {
			return log.Err("failed to seed song", err, "title", song.Title)
		}
	}

	// An uneven spread so the leaderboard has structure out of the box.
	votes := []*Vote{
		{VoterID: users[0].ID, SongID: songs[0].ID, BandID: band.ID, Type: VoteTypeUp},
		{VoterID: users[1].ID, SongID: songs[0].ID, BandID: band.ID, Type: VoteTypeUp},
		{VoterID: users[2].ID, SongID: songs[0].ID, BandID: band.ID, Type: VoteTypeUp},
		{VoterID: users[0].ID, SongID: songs[1].ID, BandID: band.ID, Type: VoteTypeUp},
		{VoterID: users[3].ID, SongID: songs[1].ID, BandID: band.ID, Type: VoteTypeDown},
		{VoterID: users[1].ID, SongID: songs[2].ID, BandID: band.ID, Type: VoteTypeUp},
		{VoterID: users[2].ID, SongID: songs[3].ID, BandID: band.ID, Type: VoteTypeDown},
		{VoterID: users[3].ID, SongID: songs[4].ID, BandID: band.ID, Type: VoteTypeUp},
	}
	for _, vote := range votes {
		if err := db.Create(vote).Error; err != nil {
			return log.Err("failed to seed vote", err)
		}
	}

	nextFriday := upcomingWeekday(time.Now().UTC(), time.Friday)
	series := &RehearsalSeries{
		BandID:               band.ID,
		RecurrenceType:       RecurrenceWeekly,
		Interval:             1,
		DaysOfWeek:           []string{"friday"},
		StartDate:            nextFriday,
		EndCondition:         EndConditionNever,
		IsActive:             true,
		TemplateName:         "Friday rehearsal",
		TemplateLocation:     "Basement studio",
		TemplateSongsToLearn: 5,
	}
	if err := db.Create(series).Error; err != nil {
		return log.Err("failed to seed rehearsal series", err)
	}

	log.Info("Seed complete",
		"users", len(users), "songs", len(songs), "votes", len(votes))
	return nil
}

func upcomingWeekday(from time.Time, day time.Weekday) time.Time {
	date := time.Date(from.Year(), from.Month(), from.Day(), 19, 0, 0, 0, time.UTC)
	for date.Weekday() != day {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

func ptr[T any](v T) *T {
	return &v
}
