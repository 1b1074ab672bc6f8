package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/meeting"
)

type meetingRepository struct {
	db *DB
}

var _ meeting.Repository = (*meetingRepository)(nil)

func NewMeetingRepository(db *DB) *meetingRepository {
	return &meetingRepository{db: db}
}

func (repo *meetingRepository) query() []meeting.Meeting {
	meetings := make([]meeting.Meeting, 0, len(repo.db.meetings))
	for _, m := range repo.db.meetings {
		meetings = append(meetings, *m)
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].StartsAt.Before(meetings[j].StartsAt) })
	return meetings
}

func (repo *meetingRepository) CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	repo.db.meetings[m.ID] = &m
	return m, nil
}

func (repo *meetingRepository) GetMeetingByID(ctx context.Context, id string) (meeting.Meeting, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.meetings[id]; ok {
		return *m, nil
	}
	return meeting.Meeting{}, meeting.ErrNotFound
}

func (repo *meetingRepository) QueryMeetings(ctx context.Context, filter *meeting.QueryFilter, ordering []core.DBOrdering) ([]meeting.Meeting, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	meetings := repo.query()
	if filter == nil {
		return meetings, nil
	}

	matched := make([]meeting.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if filter.RelationshipID != "" && m.RelationshipID != filter.RelationshipID {
			continue
		}
		if filter.ParticipantID != "" {
			rel, ok := repo.db.relationships[m.RelationshipID]
			if !ok || !rel.IsParticipant(filter.ParticipantID) {
				continue
			}
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && m.StartsAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.StartsAt.After(filter.To) {
			continue
		}
		matched = append(matched, m)
	}
	return matched, nil
}

func (repo *meetingRepository) UpdateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.meetings[m.ID]; !ok {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	repo.db.meetings[m.ID] = &m
	return m, nil
}

func (repo *meetingRepository) QueryOpenMeetingsOf(ctx context.Context, participantIDs []string, excludeID string) ([]meeting.Meeting, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var meetings []meeting.Meeting
	for _, m := range repo.query() {
		if m.ID == excludeID || !m.IsOpen() {
			continue
		}
		rel, ok := repo.db.relationships[m.RelationshipID]
		if !ok {
			continue
		}
		for _, id := range participantIDs {
			if rel.IsParticipant(id) {
				meetings = append(meetings, m)
				break
			}
		}
	}
	return meetings, nil
}
