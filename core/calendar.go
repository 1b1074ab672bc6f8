package core

import (
	"context"
	"time"
)

type (
	// CalendarEvent is a provider-agnostic calendar entry with an optional
	// video-conference link.
	CalendarEvent struct {
		ID          string
		Summary     string
		Description string
		StartsAt    time.Time
		EndsAt      time.Time
		Attendees   []string // email addresses
		MeetLink    string
	}

	// CalendarService is any service that can manage calendar events.
	CalendarService interface {
		CreateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error)
		UpdateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error)
		DeleteEvent(ctx context.Context, id string) error
	}
)
