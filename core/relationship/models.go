package relationship

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lazoapp/lazo/core"
)

// Statuses
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusEnded   = "ended"
)

// transitions maps a status to the statuses it may move to.
var transitions = map[string][]string{
	StatusPending: {StatusActive, StatusEnded},
	StatusActive:  {StatusPaused, StatusEnded},
	StatusPaused:  {StatusActive, StatusEnded},
	StatusEnded:   {},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Relationship pairs one entrepreneur with one ally, optionally sponsored by a client.
type Relationship struct {
	ID             string    `json:"id"`
	EntrepreneurID string    `json:"entrepreneur_id"`
	AllyID         string    `json:"ally_id"`
	ClientID       string    `json:"client_id,omitempty"`
	Goal           string    `json:"goal"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"started_at"` // UTC; zero until activated
	EndedAt        time.Time `json:"ended_at"`   // UTC; zero until ended
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

func (r *Relationship) IsEnded() bool { return r.Status == StatusEnded }

// IsParticipant reports whether the given user ID is the entrepreneur or the ally.
func (r *Relationship) IsParticipant(userID string) bool {
	return userID != "" && (userID == r.EntrepreneurID || userID == r.AllyID)
}

// CounterpartID returns the other participant's ID.
func (r *Relationship) CounterpartID(userID string) string {
	if userID == r.EntrepreneurID {
		return r.AllyID
	}
	return r.EntrepreneurID
}

// ParticipantIDs returns the entrepreneur and ally IDs.
func (r *Relationship) ParticipantIDs() []string {
	return []string{r.EntrepreneurID, r.AllyID}
}

// NewRelationship contains information needed to pair an entrepreneur with an ally.
type NewRelationship struct {
	EntrepreneurID string `json:"entrepreneur_id" validate:"required"`
	AllyID         string `json:"ally_id" validate:"required"`
	ClientID       string `json:"client_id"`
	Goal           string `json:"goal" validate:"required"`
}

func (nr *NewRelationship) Validate(validate *validator.Validate) error {
	nr.Goal = core.CleanString(nr.Goal)
	return validate.Struct(nr)
}

// HourEntry is mentorship time logged by the ally; it only counts toward
// impact metrics once the entrepreneur confirms it.
type HourEntry struct {
	ID             string    `json:"id"`
	RelationshipID string    `json:"relationship_id"`
	AllyID         string    `json:"ally_id"`
	Date           time.Time `json:"date"` // day the hours were spent
	Hours          float64   `json:"hours"`
	Note           string    `json:"note"`
	Confirmed      bool      `json:"confirmed"`
	ConfirmedAt    time.Time `json:"confirmed_at"` // UTC; zero until confirmed
	CreatedAt      time.Time `json:"created_at"`   // UTC
}

// NewHourEntry contains information needed to log mentorship hours.
type NewHourEntry struct {
	Date  time.Time `json:"date" validate:"required"`
	Hours float64   `json:"hours" validate:"required,gte=0.25,lte=24"`
	Note  string    `json:"note"`
}

func (nh *NewHourEntry) Validate(validate *validator.Validate) error {
	nh.Note = core.CleanString(nh.Note)
	return validate.Struct(nh)
}

type QueryFilter struct {
	EntrepreneurID string `query:"entrepreneur_id"`
	AllyID         string `query:"ally_id"`
	ClientID       string `query:"client_id"`
	ParticipantID  string `query:"-"` // matches entrepreneur or ally; set server-side
	Status         string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.EntrepreneurID == "" && qf.AllyID == "" && qf.ClientID == "" && qf.ParticipantID == "" && qf.Status == ""
}

type HoursFilter struct {
	RelationshipID string    `query:"-"` // set from the URL path
	AllyID         string    `query:"ally_id"`
	Confirmed      *bool     `query:"confirmed"`
	DateFrom       time.Time `query:"date_from"`
	DateTo         time.Time `query:"date_to"`
}
