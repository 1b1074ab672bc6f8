package calendarsvc

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lazoapp/lazo/core"
)

// DummyService is an in-memory CalendarService for local development and tests.
type DummyService struct {
	mu     sync.Mutex
	Events map[string]core.CalendarEvent
}

var _ core.CalendarService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{Events: make(map[string]core.CalendarEvent)}
}

func (svc *DummyService) CreateEvent(ctx context.Context, event core.CalendarEvent) (core.CalendarEvent, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	event.ID = uuid.New().String()
	event.MeetLink = "https://meet.example.com/" + event.ID
	svc.Events[event.ID] = event
	return event, nil
}

func (svc *DummyService) UpdateEvent(ctx context.Context, event core.CalendarEvent) (core.CalendarEvent, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if existing, ok := svc.Events[event.ID]; ok {
		event.MeetLink = existing.MeetLink
	}
	svc.Events[event.ID] = event
	return event, nil
}

func (svc *DummyService) DeleteEvent(ctx context.Context, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	delete(svc.Events, id)
	return nil
}
