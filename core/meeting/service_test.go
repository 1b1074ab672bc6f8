package meeting_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
	calendarsvc "github.com/lazoapp/lazo/services/calendar"
	emailsvc "github.com/lazoapp/lazo/services/email"
	inmemdb "github.com/lazoapp/lazo/storage/database/inmem"
	testutil "github.com/lazoapp/lazo/tests"
)

type fixture struct {
	svc    meeting.Service
	calSvc *calendarsvc.DummyService

	entrepreneur user.User
	ally         user.User
	admin        user.User
	rel          relationship.Relationship

	usrRepo user.Repository
	relRepo relationship.Repository
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	relRepo := inmemdb.NewRelationshipRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	relSvc := relationship.NewService(relRepo, usrSvc)
	calSvc := calendarsvc.NewDummyService()

	f := &fixture{
		calSvc:  calSvc,
		usrRepo: usrRepo,
		relRepo: relRepo,
	}
	f.svc = meeting.NewService(inmemdb.NewMeetingRepository(db), relSvc, usrSvc, calSvc, mailSvc, testutil.NopLogger{})
	f.entrepreneur = testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	f.ally = testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	f.admin = testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)
	f.rel = testutil.CreateRelationship(t, relRepo, f.entrepreneur.ID, f.ally.ID, "", relationship.StatusActive)
	return f
}

// slot returns a future time slot offset by `days` days.
func slot(days int, d time.Duration) (time.Time, time.Time) {
	start := time.Now().UTC().AddDate(0, 0, days).Truncate(time.Hour)
	return start, start.Add(d)
}

func validationErr(t *testing.T, err error) *core.ValidationError {
	t.Helper()
	verr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("expected *core.ValidationError, got %T: %v", err, err)
	}
	return verr
}

func Test_service_Propose(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start, end := slot(1, time.Hour)

	t.Run("outsiders cannot propose", func(t *testing.T) {
		other := testutil.CreateUser(t, f.usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleAlly}, true)
		_, err := f.svc.Propose(ctx, other, f.rel.ID, meeting.NewMeeting{Subject: "Kickoff", StartsAt: start, EndsAt: end})
		assert.Equal(t, meeting.ErrNotParticipant, err)
	})

	t.Run("ends before start", func(t *testing.T) {
		_, err := f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Kickoff", StartsAt: end, EndsAt: start})
		verr := validationErr(t, err)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "ends_at", verr.Fields[0].Field)
	})

	t.Run("too long", func(t *testing.T) {
		tooLate := start.Add(meeting.MaxDuration + time.Minute)
		_, err := f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Marathon", StartsAt: start, EndsAt: tooLate})
		verr := validationErr(t, err)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "ends_at", verr.Fields[0].Field)
	})

	t.Run("must start in the future", func(t *testing.T) {
		past := time.Now().UTC().Add(-time.Hour)
		_, err := f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Yesterday", StartsAt: past, EndsAt: past.Add(time.Hour)})
		verr := validationErr(t, err)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "starts_at", verr.Fields[0].Field)
	})

	var m meeting.Meeting
	t.Run("ok", func(t *testing.T) {
		var err error
		m, err = f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Kickoff", Agenda: "intro", StartsAt: start, EndsAt: end})
		require.NoError(t, err)
		assert.Equal(t, meeting.StatusProposed, m.Status)
		assert.Equal(t, f.ally.ID, m.CreatedByID)
	})

	t.Run("overlapping slot conflicts", func(t *testing.T) {
		_, err := f.svc.Propose(ctx, f.entrepreneur, f.rel.ID, meeting.NewMeeting{
			Subject: "Clash", StartsAt: start.Add(30 * time.Minute), EndsAt: end.Add(30 * time.Minute),
		})
		verr := validationErr(t, err)
		assert.Equal(t, meeting.ErrConflict, verr.Err)
	})

	t.Run("conflict crosses relationships", func(t *testing.T) {
		otherEnt := testutil.CreateUser(t, f.usrRepo, "Neema", "neema1", "neema@test.cd", "", []string{user.RoleEntrepreneur}, true)
		otherRel := testutil.CreateRelationship(t, f.relRepo, otherEnt.ID, f.ally.ID, "", relationship.StatusActive)

		// the ally is double-booked even though the relationship differs
		_, err := f.svc.Propose(ctx, otherEnt, otherRel.ID, meeting.NewMeeting{Subject: "Clash", StartsAt: start, EndsAt: end})
		verr := validationErr(t, err)
		assert.Equal(t, meeting.ErrConflict, verr.Err)
	})

	t.Run("back to back is fine", func(t *testing.T) {
		_, err := f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Follow-up", StartsAt: end, EndsAt: end.Add(time.Hour)})
		assert.NoError(t, err)
	})

	t.Run("ended relationship", func(t *testing.T) {
		f.rel.Status = relationship.StatusEnded
		_, err := f.relRepo.UpdateRelationship(ctx, f.rel)
		require.NoError(t, err)

		s, e := slot(7, time.Hour)
		_, err = f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Too late", StartsAt: s, EndsAt: e})
		verr := validationErr(t, err)
		assert.Equal(t, meeting.ErrRelationshipEnded, verr.Err)
	})
}

// breakAfterRepo fails UpdateMeeting once the allowed number of calls is spent.
type breakAfterRepo struct {
	meeting.Repository
	allowed int
	err     error
}

func (r *breakAfterRepo) UpdateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	if r.allowed == 0 {
		return meeting.Meeting{}, r.err
	}
	r.allowed--
	return r.Repository.UpdateMeeting(ctx, m)
}

func Test_service_Confirm_storageFailure(t *testing.T) {
	conf := testutil.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	relRepo := inmemdb.NewRelationshipRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	relSvc := relationship.NewService(relRepo, usrSvc)
	calSvc := calendarsvc.NewDummyService()

	meetRepo := inmemdb.NewMeetingRepository(db)
	errDown := errors.New("storage down")
	repo := &breakAfterRepo{Repository: meetRepo, err: errDown}
	svc := meeting.NewService(repo, relSvc, usrSvc, calSvc, mailSvc, testutil.NopLogger{})

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	rel := testutil.CreateRelationship(t, relRepo, entrepreneur.ID, ally.ID, "", relationship.StatusActive)

	ctx := context.Background()
	emailsvc.ClearSentMessages()
	start, end := slot(5, time.Hour)
	m, err := svc.Propose(ctx, ally, rel.ID, meeting.NewMeeting{Subject: "Kickoff", StartsAt: start, EndsAt: end})
	require.NoError(t, err)

	// the confirmation update succeeds, the event-id update fails
	repo.allowed = 1
	_, err = svc.Confirm(ctx, entrepreneur, m.ID)
	assert.Equal(t, errDown, err)

	// the booked event must not be left behind, and nothing was announced
	assert.Empty(t, calSvc.Events)
	assert.Empty(t, emailsvc.SentMessages)

	stored, err := meetRepo.GetMeetingByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusConfirmed, stored.Status)
	assert.Empty(t, stored.MeetLink)
	assert.Empty(t, stored.CalendarEventID)
}

func Test_service_lifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	start, end := slot(2, time.Hour)
	m, err := f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Kickoff", StartsAt: start, EndsAt: end})
	require.NoError(t, err)

	t.Run("confirm syncs calendar and notifies", func(t *testing.T) {
		m, err = f.svc.Confirm(ctx, f.entrepreneur, m.ID)
		require.NoError(t, err)
		assert.Equal(t, meeting.StatusConfirmed, m.Status)
		assert.True(t, strings.HasPrefix(m.MeetLink, "https://meet.example.com/"))
		assert.Len(t, f.calSvc.Events, 1)

		require.Len(t, emailsvc.SentMessages, 1)
		assert.Contains(t, emailsvc.SentMessages[0].Subject, "Kickoff")
	})

	t.Run("confirm is not repeatable", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, f.ally, m.ID)
		verr := validationErr(t, err)
		assert.Equal(t, meeting.ErrNotOpen, verr.Err)
	})

	t.Run("reschedule keeps the calendar in sync", func(t *testing.T) {
		s, e := slot(3, time.Hour)
		m, err = f.svc.Reschedule(ctx, f.ally, m.ID, meeting.RescheduleMeeting{StartsAt: s, EndsAt: e})
		require.NoError(t, err)
		assert.Equal(t, s, m.StartsAt)

		event := f.calSvc.Events[m.CalendarEventID]
		assert.Equal(t, s, event.StartsAt)
	})

	t.Run("complete", func(t *testing.T) {
		m, err = f.svc.Complete(ctx, f.admin, m.ID)
		require.NoError(t, err)
		assert.Equal(t, meeting.StatusCompleted, m.Status)
	})

	t.Run("cancel removes the calendar event", func(t *testing.T) {
		s, e := slot(4, time.Hour)
		m2, err := f.svc.Propose(ctx, f.ally, f.rel.ID, meeting.NewMeeting{Subject: "Next", StartsAt: s, EndsAt: e})
		require.NoError(t, err)
		m2, err = f.svc.Confirm(ctx, f.ally, m2.ID)
		require.NoError(t, err)
		require.Contains(t, f.calSvc.Events, m2.CalendarEventID)

		m2, err = f.svc.Cancel(ctx, f.entrepreneur, m2.ID)
		require.NoError(t, err)
		assert.Equal(t, meeting.StatusCanceled, m2.Status)
		assert.NotContains(t, f.calSvc.Events, m2.CalendarEventID)

		_, err = f.svc.Complete(ctx, f.ally, m2.ID)
		verr := validationErr(t, err)
		assert.Equal(t, meeting.ErrNotOpen, verr.Err)
	})
}
