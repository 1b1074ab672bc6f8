package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/meeting"
)

type meetingRow struct {
	ID              string      `db:"id"`
	RelationshipID  string      `db:"relationship_id"`
	CreatedByID     string      `db:"created_by_id"`
	Subject         string      `db:"subject"`
	Agenda          string      `db:"agenda"`
	StartsAt        time.Time   `db:"starts_at"`
	EndsAt          time.Time   `db:"ends_at"`
	Location        string      `db:"location"`
	MeetLink        null.String `db:"meet_link"`
	CalendarEventID null.String `db:"calendar_event_id"`
	Status          string      `db:"status"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func boilMeeting(m meeting.Meeting) meetingRow {
	row := meetingRow{
		ID:             m.ID,
		RelationshipID: m.RelationshipID,
		CreatedByID:    m.CreatedByID,
		Subject:        m.Subject,
		Agenda:         m.Agenda,
		StartsAt:       m.StartsAt,
		EndsAt:         m.EndsAt,
		Location:       m.Location,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.MeetLink != "" {
		row.MeetLink = null.StringFrom(m.MeetLink)
	}
	if m.CalendarEventID != "" {
		row.CalendarEventID = null.StringFrom(m.CalendarEventID)
	}
	return row
}

func unboilMeeting(row meetingRow) meeting.Meeting {
	return meeting.Meeting{
		ID:              row.ID,
		RelationshipID:  row.RelationshipID,
		CreatedByID:     row.CreatedByID,
		Subject:         row.Subject,
		Agenda:          row.Agenda,
		StartsAt:        row.StartsAt,
		EndsAt:          row.EndsAt,
		Location:        row.Location,
		MeetLink:        row.MeetLink.String,
		CalendarEventID: row.CalendarEventID.String,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

type meetingRepository struct {
	db *sqlx.DB
}

var _ meeting.Repository = (*meetingRepository)(nil)

func NewMeetingRepository(db *sqlx.DB) *meetingRepository {
	return &meetingRepository{db: db}
}

func (repo *meetingRepository) CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	row := boilMeeting(m)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO meeting (id, relationship_id, created_by_id, subject, agenda, starts_at, ends_at,
		                     location, meet_link, calendar_event_id, status, created_at, updated_at)
		VALUES (:id, :relationship_id, :created_by_id, :subject, :agenda, :starts_at, :ends_at,
		        :location, :meet_link, :calendar_event_id, :status, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	return m, nil
}

func (repo *meetingRepository) GetMeetingByID(ctx context.Context, id string) (meeting.Meeting, error) {
	var row meetingRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM meeting WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return meeting.Meeting{}, meeting.ErrNotFound
		}
		return meeting.Meeting{}, errors.Wrap(err, "getting meeting")
	}
	return unboilMeeting(row), nil
}

func (repo *meetingRepository) QueryMeetings(ctx context.Context, filter *meeting.QueryFilter, ordering []core.DBOrdering) ([]meeting.Meeting, error) {
	query := `SELECT m.* FROM meeting m`
	var (
		clauses []string
		args    []interface{}
	)

	if filter != nil {
		if filter.ParticipantID != "" {
			query += ` JOIN relationship r ON r.id = m.relationship_id`
			clauses = append(clauses, `(r.entrepreneur_id = ? OR r.ally_id = ?)`)
			args = append(args, filter.ParticipantID, filter.ParticipantID)
		}
		if filter.RelationshipID != "" {
			clauses = append(clauses, `m.relationship_id = ?`)
			args = append(args, filter.RelationshipID)
		}
		if filter.Status != "" {
			clauses = append(clauses, `m.status = ?`)
			args = append(args, filter.Status)
		}
		if !filter.From.IsZero() {
			clauses = append(clauses, `m.starts_at >= ?`)
			args = append(args, filter.From)
		}
		if !filter.To.IsZero() {
			clauses = append(clauses, `m.starts_at <= ?`)
			args = append(args, filter.To)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "m.starts_at ASC")

	var rows []meetingRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying meetings")
	}

	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, row := range rows {
		meetings = append(meetings, unboilMeeting(row))
	}
	return meetings, nil
}

func (repo *meetingRepository) UpdateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	row := boilMeeting(m)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE meeting
		SET subject = :subject, agenda = :agenda, starts_at = :starts_at, ends_at = :ends_at,
		    location = :location, meet_link = :meet_link, calendar_event_id = :calendar_event_id,
		    status = :status, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "updating meeting")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	return m, nil
}

func (repo *meetingRepository) QueryOpenMeetingsOf(ctx context.Context, participantIDs []string, excludeID string) ([]meeting.Meeting, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT m.* FROM meeting m
		JOIN relationship r ON r.id = m.relationship_id
		WHERE m.status IN (?, ?) AND (r.entrepreneur_id IN (?) OR r.ally_id IN (?))`
	args := []interface{}{meeting.StatusProposed, meeting.StatusConfirmed, participantIDs, participantIDs}
	if excludeID != "" {
		query += ` AND m.id <> ?`
		args = append(args, excludeID)
	}

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building open meetings query")
	}

	var rows []meetingRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), inArgs...); err != nil {
		return nil, errors.Wrap(err, "querying open meetings")
	}

	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, row := range rows {
		meetings = append(meetings, unboilMeeting(row))
	}
	return meetings, nil
}
