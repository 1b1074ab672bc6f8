package meeting

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound          = errors.New("meeting not found")
	ErrNotParticipant    = errors.New("user is not a participant of this relationship")
	ErrRelationshipEnded = errors.New("relationship has ended")
	ErrConflict          = errors.New("time slot conflicts with another meeting")
	ErrNotOpen           = errors.New("meeting is no longer open")

	errEndsBeforeStart = errors.New("end time must be after start time")
	errTooLong         = errors.New("meetings cannot last longer than 8 hours")
	errInPast          = errors.New("meetings must start in the future")
)

type (
	Repository interface {
		CreateMeeting(ctx context.Context, m Meeting) (Meeting, error)
		GetMeetingByID(ctx context.Context, id string) (Meeting, error)
		QueryMeetings(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Meeting, error)
		UpdateMeeting(ctx context.Context, m Meeting) (Meeting, error)
		// QueryOpenMeetingsOf returns non-canceled, non-completed meetings of relationships
		// involving any of the given participants, excluding excludeID if non-empty.
		QueryOpenMeetingsOf(ctx context.Context, participantIDs []string, excludeID string) ([]Meeting, error)
	}

	Service interface {
		Propose(ctx context.Context, creator user.User, relationshipID string, nm NewMeeting) (Meeting, error)
		GetByID(ctx context.Context, id string) (Meeting, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Meeting, error)
		Confirm(ctx context.Context, actor user.User, id string) (Meeting, error)
		Reschedule(ctx context.Context, actor user.User, id string, rm RescheduleMeeting) (Meeting, error)
		Cancel(ctx context.Context, actor user.User, id string) (Meeting, error)
		Complete(ctx context.Context, actor user.User, id string) (Meeting, error)
	}

	service struct {
		repo    Repository
		relSvc  relationship.Service
		usrSvc  user.Service
		calSvc  core.CalendarService
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	relSvc relationship.Service,
	usrSvc user.Service,
	calSvc core.CalendarService,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		repo:    repo,
		relSvc:  relSvc,
		usrSvc:  usrSvc,
		calSvc:  calSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// checkSlot validates a time slot and detects conflicts with any open meeting
// of either participant. Overlap: start < other.end && other.start < end.
func (svc *service) checkSlot(ctx context.Context, rel relationship.Relationship, start, end time.Time, excludeID string, mustBeFuture bool) error {
	if !end.After(start) {
		return core.NewValidationError(errEndsBeforeStart, core.FieldError{Field: "ends_at", Error: errEndsBeforeStart.Error()})
	}
	if end.Sub(start) > MaxDuration {
		return core.NewValidationError(errTooLong, core.FieldError{Field: "ends_at", Error: errTooLong.Error()})
	}
	if mustBeFuture && !start.After(nowFunc()) {
		return core.NewValidationError(errInPast, core.FieldError{Field: "starts_at", Error: errInPast.Error()})
	}

	others, err := svc.repo.QueryOpenMeetingsOf(ctx, rel.ParticipantIDs(), excludeID)
	if err != nil {
		return err
	}
	for i := range others {
		if others[i].Overlaps(start, end) {
			return core.NewValidationError(ErrConflict, core.FieldError{
				Field: "starts_at",
				Error: fmt.Sprintf("%s: %q (%s - %s)", ErrConflict.Error(), others[i].Subject,
					others[i].StartsAt.Format(time.RFC3339), others[i].EndsAt.Format(time.RFC3339)),
			})
		}
	}
	return nil
}

func (svc *service) Propose(ctx context.Context, creator user.User, relationshipID string, nm NewMeeting) (Meeting, error) {
	rel, err := svc.relSvc.GetByID(ctx, relationshipID)
	if err != nil {
		return Meeting{}, err
	}
	if !rel.IsParticipant(creator.ID) && !creator.IsAdmin() {
		return Meeting{}, ErrNotParticipant
	}
	if rel.IsEnded() {
		return Meeting{}, core.NewValidationError(ErrRelationshipEnded)
	}

	start, end := nm.StartsAt.UTC(), nm.EndsAt.UTC()
	if err = svc.checkSlot(ctx, rel, start, end, "", true /* mustBeFuture */); err != nil {
		return Meeting{}, err
	}

	now := time.Now().UTC()
	m := Meeting{
		RelationshipID: rel.ID,
		CreatedByID:    creator.ID,
		Subject:        nm.Subject,
		Agenda:         nm.Agenda,
		StartsAt:       start,
		EndsAt:         end,
		Location:       nm.Location,
		Status:         StatusProposed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateMeeting(ctx, m)
}

func (svc *service) GetByID(ctx context.Context, id string) (Meeting, error) {
	return svc.repo.GetMeetingByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Meeting, error) {
	return svc.repo.QueryMeetings(ctx, filter, ordering)
}

// getForUpdate loads the meeting and its relationship and checks the actor may act on it.
func (svc *service) getForUpdate(ctx context.Context, actor user.User, id string) (Meeting, relationship.Relationship, error) {
	m, err := svc.repo.GetMeetingByID(ctx, id)
	if err != nil {
		return Meeting{}, relationship.Relationship{}, err
	}
	rel, err := svc.relSvc.GetByID(ctx, m.RelationshipID)
	if err != nil {
		return Meeting{}, relationship.Relationship{}, err
	}
	if !rel.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return Meeting{}, relationship.Relationship{}, ErrNotParticipant
	}
	return m, rel, nil
}

func (svc *service) Confirm(ctx context.Context, actor user.User, id string) (Meeting, error) {
	m, rel, err := svc.getForUpdate(ctx, actor, id)
	if err != nil {
		return Meeting{}, err
	}
	if m.Status != StatusProposed {
		return Meeting{}, core.NewValidationError(ErrNotOpen)
	}

	m.Status = StatusConfirmed
	m.UpdatedAt = time.Now().UTC()
	if m, err = svc.repo.UpdateMeeting(ctx, m); err != nil {
		return Meeting{}, err
	}

	// calendar sync is best-effort; failures are logged, never returned
	event, err := svc.calSvc.CreateEvent(ctx, core.CalendarEvent{
		Summary:     m.Subject,
		Description: m.Agenda,
		StartsAt:    m.StartsAt,
		EndsAt:      m.EndsAt,
		Attendees:   svc.attendeeEmails(ctx, rel),
	})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("creating calendar event: %v", err), err)
	} else {
		m.CalendarEventID = event.ID
		m.MeetLink = event.MeetLink
		if m, err = svc.repo.UpdateMeeting(ctx, m); err != nil {
			// never leave a booked event no stored meeting points to
			if delErr := svc.calSvc.DeleteEvent(ctx, event.ID); delErr != nil {
				svc.logger.Error(fmt.Sprintf("deleting unreferenced calendar event: %v", delErr), delErr)
			}
			return Meeting{}, err
		}
	}

	svc.sendConfirmationMail(ctx, m, rel)
	return m, nil
}

func (svc *service) Reschedule(ctx context.Context, actor user.User, id string, rm RescheduleMeeting) (Meeting, error) {
	m, rel, err := svc.getForUpdate(ctx, actor, id)
	if err != nil {
		return Meeting{}, err
	}
	if !m.IsOpen() {
		return Meeting{}, core.NewValidationError(ErrNotOpen)
	}

	start, end := rm.StartsAt.UTC(), rm.EndsAt.UTC()
	if err = svc.checkSlot(ctx, rel, start, end, m.ID, true /* mustBeFuture */); err != nil {
		return Meeting{}, err
	}

	m.StartsAt = start
	m.EndsAt = end
	m.UpdatedAt = time.Now().UTC()

	if m.CalendarEventID != "" {
		if _, err = svc.calSvc.UpdateEvent(ctx, core.CalendarEvent{
			ID:          m.CalendarEventID,
			Summary:     m.Subject,
			Description: m.Agenda,
			StartsAt:    m.StartsAt,
			EndsAt:      m.EndsAt,
		}); err != nil {
			svc.logger.Error(fmt.Sprintf("updating calendar event: %v", err), err)
		}
	}
	return svc.repo.UpdateMeeting(ctx, m)
}

func (svc *service) Cancel(ctx context.Context, actor user.User, id string) (Meeting, error) {
	m, _, err := svc.getForUpdate(ctx, actor, id)
	if err != nil {
		return Meeting{}, err
	}
	if !m.IsOpen() {
		return Meeting{}, core.NewValidationError(ErrNotOpen)
	}

	m.Status = StatusCanceled
	m.UpdatedAt = time.Now().UTC()

	if m.CalendarEventID != "" {
		if err = svc.calSvc.DeleteEvent(ctx, m.CalendarEventID); err != nil {
			svc.logger.Error(fmt.Sprintf("deleting calendar event: %v", err), err)
		}
	}
	return svc.repo.UpdateMeeting(ctx, m)
}

func (svc *service) Complete(ctx context.Context, actor user.User, id string) (Meeting, error) {
	m, _, err := svc.getForUpdate(ctx, actor, id)
	if err != nil {
		return Meeting{}, err
	}
	if m.Status != StatusConfirmed {
		return Meeting{}, core.NewValidationError(ErrNotOpen)
	}

	m.Status = StatusCompleted
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMeeting(ctx, m)
}

func (svc *service) attendeeEmails(ctx context.Context, rel relationship.Relationship) []string {
	emails := make([]string, 0, 2)
	for _, id := range rel.ParticipantIDs() {
		usr, err := svc.usrSvc.GetByID(ctx, id)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("resolving attendee %s: %v", id, err))
			continue
		}
		if usr.Email != "" {
			emails = append(emails, usr.Email)
		}
	}
	return emails
}

func (svc *service) sendConfirmationMail(ctx context.Context, m Meeting, rel relationship.Relationship) {
	to := make([]mail.Address, 0, 2)
	for _, id := range rel.ParticipantIDs() {
		usr, err := svc.usrSvc.GetByID(ctx, id)
		if err != nil || usr.Email == "" {
			continue
		}
		to = append(to, mail.Address{Name: usr.Name, Address: usr.Email})
	}
	if len(to) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("Meeting confirmed: %s", m.Subject),
		TemplateName: "meeting-confirmed",
		TemplateData: struct {
			Subject  string
			StartsAt string
			EndsAt   string
			MeetLink string
			Location string
		}{m.Subject, m.StartsAt.Format(time.RFC1123), m.EndsAt.Format(time.RFC1123), m.MeetLink, m.Location},
	})
}
