package meeting

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lazoapp/lazo/core"
)

// Statuses
const (
	StatusProposed  = "proposed"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// MaxDuration caps a single meeting.
const MaxDuration = 8 * time.Hour

// Meeting is a scheduled session between the participants of a relationship.
type Meeting struct {
	ID              string    `json:"id"`
	RelationshipID  string    `json:"relationship_id"`
	CreatedByID     string    `json:"created_by_id"`
	Subject         string    `json:"subject"`
	Agenda          string    `json:"agenda"`
	StartsAt        time.Time `json:"starts_at"` // UTC
	EndsAt          time.Time `json:"ends_at"`   // UTC
	Location        string    `json:"location"`
	MeetLink        string    `json:"meet_link,omitempty"`
	CalendarEventID string    `json:"-"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// Overlaps reports whether the meeting's time slot intersects [start, end).
func (m *Meeting) Overlaps(start, end time.Time) bool {
	return m.StartsAt.Before(end) && start.Before(m.EndsAt)
}

func (m *Meeting) IsOpen() bool {
	return m.Status == StatusProposed || m.Status == StatusConfirmed
}

// NewMeeting contains information needed to propose a meeting.
type NewMeeting struct {
	Subject  string    `json:"subject" validate:"required"`
	Agenda   string    `json:"agenda"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
	Location string    `json:"location"`
}

func (nm *NewMeeting) Validate(validate *validator.Validate) error {
	nm.Subject = core.CleanString(nm.Subject)
	nm.Agenda = core.CleanString(nm.Agenda)
	nm.Location = core.CleanString(nm.Location)
	return validate.Struct(nm)
}

// RescheduleMeeting moves a meeting to a new time slot.
type RescheduleMeeting struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

func (rm RescheduleMeeting) Validate(validate *validator.Validate) error {
	return validate.Struct(rm)
}

type QueryFilter struct {
	RelationshipID string    `query:"relationship_id"`
	ParticipantID  string    `query:"-"` // set server-side
	Status         string    `query:"status"`
	From           time.Time `query:"from"`
	To             time.Time `query:"to"`
}
