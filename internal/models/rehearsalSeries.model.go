package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecurrenceType string

const (
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiWeekly RecurrenceType = "bi_weekly"
	RecurrenceMonthly  RecurrenceType = "monthly"
	RecurrenceCustom   RecurrenceType = "custom"
)

type EndConditionType string

const (
	EndConditionNever      EndConditionType = "never"
	EndConditionAfterCount EndConditionType = "after_count"
	EndConditionEndDate    EndConditionType = "end_date"
)

// ExceptionDateLayout is the calendar-date form used for series exception
// entries. Comparison is timezone-naive; rehearsal dates are stored at UTC
// midnight plus the template start time.
const ExceptionDateLayout = "2006-01-02"

// RehearsalSeries is a recurrence rule plus the template copied onto every
// rehearsal it generates. Generated rehearsals reference it via SeriesID and
// cascade on delete.
type RehearsalSeries struct {
	BaseUUIDModel
	BandID         uuid.UUID                    `gorm:"type:uuid;not null;index"              json:"bandId"`
	Band           Band                         `gorm:"foreignKey:BandID"                     json:"band"`
	RecurrenceType RecurrenceType               `gorm:"type:text;not null"                    json:"recurrenceType"`
	Interval       int                          `gorm:"type:integer;not null;default:1"       json:"interval"`
	DaysOfWeek     datatypes.JSONSlice[string]  `gorm:"type:jsonb"                            json:"daysOfWeek"`
	StartDate      time.Time                    `gorm:"not null"                              json:"startDate"`
	EndCondition   EndConditionType             `gorm:"type:text;not null;default:'never'"    json:"endCondition"`
	EndAfterCount  *int                         `gorm:"type:integer"                          json:"endAfterCount,omitempty"`
	EndDate        *time.Time                   `gorm:"type:timestamp"                        json:"endDate,omitempty"`
	Exceptions     datatypes.JSONSlice[string]  `gorm:"type:jsonb"                            json:"exceptions"`
	GeneratedCount int                          `gorm:"type:integer;not null;default:0"       json:"generatedCount"`
	IsActive       bool                         `gorm:"type:bool;not null;default:true"       json:"isActive"`

	// Template fields copied onto generated rehearsals.
	TemplateName                   string `gorm:"type:text;not null"              json:"templateName"`
	TemplateDescription            string `gorm:"type:text"                       json:"templateDescription"`
	TemplateLocation               string `gorm:"type:text"                       json:"templateLocation"`
	TemplateSongsToLearn           int    `gorm:"type:integer;not null;default:5" json:"templateSongsToLearn"`
	TemplateSelectionDeadlineHours *int   `gorm:"type:integer"                    json:"templateSelectionDeadlineHours,omitempty"`

	Rehearsals []Rehearsal `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE" json:"rehearsals,omitempty"`
}

func (s *RehearsalSeries) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Interval < 1 {
		s.Interval = 1
	}
	if s.EndCondition == "" {
		s.EndCondition = EndConditionNever
	}
	if s.TemplateSongsToLearn <= 0 {
		s.TemplateSongsToLearn = 5
	}
	return nil
}

// ExceptionSet returns the exception dates keyed by their calendar-date form.
func (s *RehearsalSeries) ExceptionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Exceptions))
	for _, d := range s.Exceptions {
		set[d] = struct{}{}
	}
	return set
}
