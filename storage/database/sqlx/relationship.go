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
	"github.com/lazoapp/lazo/core/relationship"
)

type relationshipRow struct {
	ID             string      `db:"id"`
	EntrepreneurID string      `db:"entrepreneur_id"`
	AllyID         string      `db:"ally_id"`
	ClientID       null.String `db:"client_id"`
	Goal           string      `db:"goal"`
	Status         string      `db:"status"`
	StartedAt      null.Time   `db:"started_at"`
	EndedAt        null.Time   `db:"ended_at"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func boilRelationship(rel relationship.Relationship) relationshipRow {
	row := relationshipRow{
		ID:             rel.ID,
		EntrepreneurID: rel.EntrepreneurID,
		AllyID:         rel.AllyID,
		Goal:           rel.Goal,
		Status:         rel.Status,
		CreatedAt:      rel.CreatedAt,
		UpdatedAt:      rel.UpdatedAt,
	}
	if rel.ClientID != "" {
		row.ClientID = null.StringFrom(rel.ClientID)
	}
	if !rel.StartedAt.IsZero() {
		row.StartedAt = null.TimeFrom(rel.StartedAt)
	}
	if !rel.EndedAt.IsZero() {
		row.EndedAt = null.TimeFrom(rel.EndedAt)
	}
	return row
}

func unboilRelationship(row relationshipRow) relationship.Relationship {
	return relationship.Relationship{
		ID:             row.ID,
		EntrepreneurID: row.EntrepreneurID,
		AllyID:         row.AllyID,
		ClientID:       row.ClientID.String,
		Goal:           row.Goal,
		Status:         row.Status,
		StartedAt:      row.StartedAt.Time,
		EndedAt:        row.EndedAt.Time,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type hourEntryRow struct {
	ID             string    `db:"id"`
	RelationshipID string    `db:"relationship_id"`
	AllyID         string    `db:"ally_id"`
	Date           time.Time `db:"date"`
	Hours          float64   `db:"hours"`
	Note           string    `db:"note"`
	Confirmed      bool      `db:"confirmed"`
	ConfirmedAt    null.Time `db:"confirmed_at"`
	CreatedAt      time.Time `db:"created_at"`
}

func boilHourEntry(entry relationship.HourEntry) hourEntryRow {
	row := hourEntryRow{
		ID:             entry.ID,
		RelationshipID: entry.RelationshipID,
		AllyID:         entry.AllyID,
		Date:           entry.Date,
		Hours:          entry.Hours,
		Note:           entry.Note,
		Confirmed:      entry.Confirmed,
		CreatedAt:      entry.CreatedAt,
	}
	if !entry.ConfirmedAt.IsZero() {
		row.ConfirmedAt = null.TimeFrom(entry.ConfirmedAt)
	}
	return row
}

func unboilHourEntry(row hourEntryRow) relationship.HourEntry {
	return relationship.HourEntry{
		ID:             row.ID,
		RelationshipID: row.RelationshipID,
		AllyID:         row.AllyID,
		Date:           row.Date,
		Hours:          row.Hours,
		Note:           row.Note,
		Confirmed:      row.Confirmed,
		ConfirmedAt:    row.ConfirmedAt.Time,
		CreatedAt:      row.CreatedAt,
	}
}

type relationshipRepository struct {
	db *sqlx.DB
}

var _ relationship.Repository = (*relationshipRepository)(nil)

func NewRelationshipRepository(db *sqlx.DB) *relationshipRepository {
	return &relationshipRepository{db: db}
}

func (repo *relationshipRepository) CreateRelationship(ctx context.Context, rel relationship.Relationship) (relationship.Relationship, error) {
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	row := boilRelationship(rel)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO relationship (id, entrepreneur_id, ally_id, client_id, goal, status, started_at, ended_at, created_at, updated_at)
		VALUES (:id, :entrepreneur_id, :ally_id, :client_id, :goal, :status, :started_at, :ended_at, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return relationship.Relationship{}, errors.Wrap(err, "inserting relationship")
	}
	return rel, nil
}

func (repo *relationshipRepository) GetRelationshipByID(ctx context.Context, id string) (relationship.Relationship, error) {
	var row relationshipRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM relationship WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return relationship.Relationship{}, relationship.ErrNotFound
		}
		return relationship.Relationship{}, errors.Wrap(err, "getting relationship")
	}
	return unboilRelationship(row), nil
}

func (repo *relationshipRepository) QueryRelationships(ctx context.Context, filter *relationship.QueryFilter, ordering []core.DBOrdering) ([]relationship.Relationship, error) {
	query := `SELECT * FROM relationship`
	var (
		clauses []string
		args    []interface{}
	)

	if filter != nil {
		if filter.EntrepreneurID != "" {
			clauses = append(clauses, `entrepreneur_id = ?`)
			args = append(args, filter.EntrepreneurID)
		}
		if filter.AllyID != "" {
			clauses = append(clauses, `ally_id = ?`)
			args = append(args, filter.AllyID)
		}
		if filter.ClientID != "" {
			clauses = append(clauses, `client_id = ?`)
			args = append(args, filter.ClientID)
		}
		if filter.ParticipantID != "" {
			clauses = append(clauses, `(entrepreneur_id = ? OR ally_id = ?)`)
			args = append(args, filter.ParticipantID, filter.ParticipantID)
		}
		if filter.Status != "" {
			clauses = append(clauses, `status = ?`)
			args = append(args, filter.Status)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "created_at DESC")

	var rows []relationshipRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying relationships")
	}

	rels := make([]relationship.Relationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, unboilRelationship(row))
	}
	return rels, nil
}

func (repo *relationshipRepository) UpdateRelationship(ctx context.Context, rel relationship.Relationship) (relationship.Relationship, error) {
	row := boilRelationship(rel)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE relationship
		SET client_id = :client_id, goal = :goal, status = :status,
		    started_at = :started_at, ended_at = :ended_at, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return relationship.Relationship{}, errors.Wrap(err, "updating relationship")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return relationship.Relationship{}, relationship.ErrNotFound
	}
	return rel, nil
}

func (repo *relationshipRepository) HasOpenRelationship(ctx context.Context, entrepreneurID, allyID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM relationship
			WHERE entrepreneur_id = $1 AND ally_id = $2 AND status <> $3
		)`,
		entrepreneurID, allyID, relationship.StatusEnded,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking open relationship")
	}
	return exists, nil
}

func (repo *relationshipRepository) CreateHourEntry(ctx context.Context, entry relationship.HourEntry) (relationship.HourEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	row := boilHourEntry(entry)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO hour_entry (id, relationship_id, ally_id, date, hours, note, confirmed, confirmed_at, created_at)
		VALUES (:id, :relationship_id, :ally_id, :date, :hours, :note, :confirmed, :confirmed_at, :created_at)`,
		row,
	)
	if err != nil {
		return relationship.HourEntry{}, errors.Wrap(err, "inserting hour entry")
	}
	return entry, nil
}

func (repo *relationshipRepository) GetHourEntryByID(ctx context.Context, id string) (relationship.HourEntry, error) {
	var row hourEntryRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM hour_entry WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return relationship.HourEntry{}, relationship.ErrEntryNotFound
		}
		return relationship.HourEntry{}, errors.Wrap(err, "getting hour entry")
	}
	return unboilHourEntry(row), nil
}

func (repo *relationshipRepository) QueryHourEntries(ctx context.Context, filter *relationship.HoursFilter, ordering []core.DBOrdering) ([]relationship.HourEntry, error) {
	query := `SELECT * FROM hour_entry`
	var (
		clauses []string
		args    []interface{}
	)

	if filter != nil {
		if filter.RelationshipID != "" {
			clauses = append(clauses, `relationship_id = ?`)
			args = append(args, filter.RelationshipID)
		}
		if filter.AllyID != "" {
			clauses = append(clauses, `ally_id = ?`)
			args = append(args, filter.AllyID)
		}
		if filter.Confirmed != nil {
			clauses = append(clauses, `confirmed = ?`)
			args = append(args, *filter.Confirmed)
		}
		if !filter.DateFrom.IsZero() {
			clauses = append(clauses, `date >= ?`)
			args = append(args, filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			clauses = append(clauses, `date <= ?`)
			args = append(args, filter.DateTo)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "date DESC")

	var rows []hourEntryRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying hour entries")
	}

	entries := make([]relationship.HourEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, unboilHourEntry(row))
	}
	return entries, nil
}

func (repo *relationshipRepository) UpdateHourEntry(ctx context.Context, entry relationship.HourEntry) (relationship.HourEntry, error) {
	row := boilHourEntry(entry)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE hour_entry
		SET date = :date, hours = :hours, note = :note, confirmed = :confirmed, confirmed_at = :confirmed_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return relationship.HourEntry{}, errors.Wrap(err, "updating hour entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return relationship.HourEntry{}, relationship.ErrEntryNotFound
	}
	return entry, nil
}
