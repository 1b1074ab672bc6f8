package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core/report"
)

type impactRow struct {
	RelationshipID   string  `db:"relationship_id"`
	EntrepreneurName string  `db:"entrepreneur_name"`
	AllyName         string  `db:"ally_name"`
	Status           string  `db:"status"`
	ConfirmedHours   float64 `db:"confirmed_hours"`
	PendingHours     float64 `db:"pending_hours"`
	MeetingsHeld     int     `db:"meetings_held"`
	TasksDone        int     `db:"tasks_done"`
	TasksOpen        int     `db:"tasks_open"`
	Documents        int     `db:"documents"`
}

type summaryRow struct {
	Relationships       int     `db:"relationships"`
	ActiveRelationships int     `db:"active_relationships"`
	ConfirmedHours      float64 `db:"confirmed_hours"`
	MeetingsHeld        int     `db:"meetings_held"`
	TasksDone           int     `db:"tasks_done"`
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

// scopeClauses builds relationship-level WHERE clauses from the filter.
func scopeClauses(filter report.Filter) ([]string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.ClientID != "" {
		clauses = append(clauses, `r.client_id = ?`)
		args = append(args, filter.ClientID)
	}
	if filter.AllyID != "" {
		clauses = append(clauses, `r.ally_id = ?`)
		args = append(args, filter.AllyID)
	}
	if filter.EntrepreneurID != "" {
		clauses = append(clauses, `r.entrepreneur_id = ?`)
		args = append(args, filter.EntrepreneurID)
	}
	return clauses, args
}

// window builds an optional time-window clause on the given column.
func window(column string, from, to time.Time) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if !from.IsZero() {
		clauses = append(clauses, column+` >= ?`)
		args = append(args, from)
	}
	if !to.IsZero() {
		clauses = append(clauses, column+` <= ?`)
		args = append(args, to)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func (repo *reportRepository) QueryImpact(ctx context.Context, filter report.Filter) ([]report.Impact, error) {
	hoursWin, hoursArgs := window("h.date", filter.From, filter.To)
	meetWin, meetArgs := window("m.starts_at", filter.From, filter.To)
	taskWin, taskArgs := window("t.updated_at", filter.From, filter.To)
	docWin, docArgs := window("d.created_at", filter.From, filter.To)

	query := `
		SELECT r.id AS relationship_id,
		       e.name AS entrepreneur_name,
		       a.name AS ally_name,
		       r.status,
		       COALESCE((SELECT SUM(h.hours) FROM hour_entry h
		                 WHERE h.relationship_id = r.id AND h.confirmed` + hoursWin + `), 0) AS confirmed_hours,
		       COALESCE((SELECT SUM(h.hours) FROM hour_entry h
		                 WHERE h.relationship_id = r.id AND NOT h.confirmed` + hoursWin + `), 0) AS pending_hours,
		       (SELECT COUNT(*) FROM meeting m
		        WHERE m.relationship_id = r.id AND m.status = 'completed'` + meetWin + `) AS meetings_held,
		       (SELECT COUNT(*) FROM task t
		        WHERE t.relationship_id = r.id AND t.status = 'done'` + taskWin + `) AS tasks_done,
		       (SELECT COUNT(*) FROM task t
		        WHERE t.relationship_id = r.id AND t.status <> 'done') AS tasks_open,
		       (SELECT COUNT(*) FROM document d
		        WHERE d.relationship_id = r.id` + docWin + `) AS documents
		FROM relationship r
		JOIN "user" e ON e.id = r.entrepreneur_id
		JOIN "user" a ON a.id = r.ally_id`

	args := make([]interface{}, 0, 8)
	args = append(args, hoursArgs...)
	args = append(args, hoursArgs...)
	args = append(args, meetArgs...)
	args = append(args, taskArgs...)
	args = append(args, docArgs...)

	clauses, scopeArgs := scopeClauses(filter)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
		args = append(args, scopeArgs...)
	}
	query += " ORDER BY r.created_at DESC"

	var rows []impactRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying impact")
	}

	impacts := make([]report.Impact, 0, len(rows))
	for _, row := range rows {
		impacts = append(impacts, report.Impact(row))
	}
	return impacts, nil
}

func (repo *reportRepository) QuerySummary(ctx context.Context, filter report.Filter) (report.Summary, error) {
	hoursWin, hoursArgs := window("h.date", filter.From, filter.To)
	meetWin, meetArgs := window("m.starts_at", filter.From, filter.To)
	taskWin, taskArgs := window("t.updated_at", filter.From, filter.To)

	scope := `FROM relationship r`
	clauses, scopeArgs := scopeClauses(filter)
	if len(clauses) > 0 {
		scope += " WHERE " + strings.Join(clauses, " AND ")
	}

	query := `
		WITH scoped AS (SELECT r.id, r.status ` + scope + `)
		SELECT (SELECT COUNT(*) FROM scoped) AS relationships,
		       (SELECT COUNT(*) FROM scoped WHERE status = 'active') AS active_relationships,
		       COALESCE((SELECT SUM(h.hours) FROM hour_entry h
		                 WHERE h.relationship_id IN (SELECT id FROM scoped) AND h.confirmed` + hoursWin + `), 0) AS confirmed_hours,
		       (SELECT COUNT(*) FROM meeting m
		        WHERE m.relationship_id IN (SELECT id FROM scoped) AND m.status = 'completed'` + meetWin + `) AS meetings_held,
		       (SELECT COUNT(*) FROM task t
		        WHERE t.relationship_id IN (SELECT id FROM scoped) AND t.status = 'done'` + taskWin + `) AS tasks_done`

	args := make([]interface{}, 0, 8)
	args = append(args, scopeArgs...)
	args = append(args, hoursArgs...)
	args = append(args, meetArgs...)
	args = append(args, taskArgs...)

	var row summaryRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), args...); err != nil {
		return report.Summary{}, errors.Wrap(err, "querying summary")
	}

	return report.Summary{
		Relationships:       row.Relationships,
		ActiveRelationships: row.ActiveRelationships,
		ConfirmedHours:      row.ConfirmedHours,
		MeetingsHeld:        row.MeetingsHeld,
		TasksDone:           row.TasksDone,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}
