package calendarsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/lazoapp/lazo/core"
)

type googleService struct {
	api        *calendar.Service
	calendarID string
}

var _ core.CalendarService = (*googleService)(nil)

// NewGoogleService builds a CalendarService backed by the Google Calendar API.
// Created events request a Google Meet conference; the resulting link is
// exposed on the returned CalendarEvent.
func NewGoogleService(ctx context.Context, conf *core.Config) (*googleService, error) {
	api, err := calendar.NewService(ctx,
		option.WithCredentialsFile(conf.GoogleCalendar.CredentialsFile),
		option.WithScopes(calendar.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating calendar client: %w", err)
	}
	return &googleService{api: api, calendarID: conf.GoogleCalendar.CalendarID}, nil
}

func (svc googleService) CreateEvent(ctx context.Context, event core.CalendarEvent) (core.CalendarEvent, error) {
	gEvent := svc.toGoogleEvent(event)
	gEvent.ConferenceData = &calendar.ConferenceData{
		CreateRequest: &calendar.CreateConferenceRequest{
			RequestId:             uuid.New().String(),
			ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
		},
	}

	created, err := svc.api.Events.Insert(svc.calendarID, gEvent).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return core.CalendarEvent{}, fmt.Errorf("inserting calendar event: %w", err)
	}

	event.ID = created.Id
	event.MeetLink = meetLink(created)
	return event, nil
}

func (svc googleService) UpdateEvent(ctx context.Context, event core.CalendarEvent) (core.CalendarEvent, error) {
	patched, err := svc.api.Events.Patch(svc.calendarID, event.ID, svc.toGoogleEvent(event)).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return core.CalendarEvent{}, fmt.Errorf("patching calendar event %s: %w", event.ID, err)
	}

	event.MeetLink = meetLink(patched)
	return event, nil
}

func (svc googleService) DeleteEvent(ctx context.Context, id string) error {
	err := svc.api.Events.Delete(svc.calendarID, id).Context(ctx).Do()
	if err != nil {
		// already gone is fine
		if gErr, ok := err.(*googleapi.Error); ok && (gErr.Code == 404 || gErr.Code == 410) {
			return nil
		}
		return fmt.Errorf("deleting calendar event %s: %w", id, err)
	}
	return nil
}

func (svc googleService) toGoogleEvent(event core.CalendarEvent) *calendar.Event {
	attendees := make([]*calendar.EventAttendee, 0, len(event.Attendees))
	for _, email := range event.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &calendar.EventDateTime{DateTime: event.StartsAt.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: event.EndsAt.Format(time.RFC3339)},
		Attendees:   attendees,
	}
}

func meetLink(event *calendar.Event) string {
	if event.ConferenceData == nil {
		return event.HangoutLink
	}
	for _, ep := range event.ConferenceData.EntryPoints {
		if ep.EntryPointType == "video" {
			return ep.Uri
		}
	}
	return event.HangoutLink
}
