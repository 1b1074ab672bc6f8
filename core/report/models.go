package report

import "time"

// Impact aggregates a single relationship's activity.
type Impact struct {
	RelationshipID   string  `json:"relationship_id"`
	EntrepreneurName string  `json:"entrepreneur_name"`
	AllyName         string  `json:"ally_name"`
	Status           string  `json:"status"`
	ConfirmedHours   float64 `json:"confirmed_hours"`
	PendingHours     float64 `json:"pending_hours"`
	MeetingsHeld     int     `json:"meetings_held"`
	TasksDone        int     `json:"tasks_done"`
	TasksOpen        int     `json:"tasks_open"`
	Documents        int     `json:"documents"`
}

// Summary aggregates platform (or client-scoped) activity.
type Summary struct {
	Relationships       int       `json:"relationships"`
	ActiveRelationships int       `json:"active_relationships"`
	ConfirmedHours      float64   `json:"confirmed_hours"`
	MeetingsHeld        int       `json:"meetings_held"`
	TasksDone           int       `json:"tasks_done"`
	GeneratedAt         time.Time `json:"generated_at"` // UTC
}

// Filter narrows report aggregations; zero fields are ignored.
type Filter struct {
	ClientID       string    `query:"client_id"`
	AllyID         string    `query:"ally_id"`
	EntrepreneurID string    `query:"entrepreneur_id"`
	From           time.Time `query:"from"`
	To             time.Time `query:"to"`
}
