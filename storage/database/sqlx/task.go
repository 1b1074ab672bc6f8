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
	"github.com/lazoapp/lazo/core/task"
)

type taskRow struct {
	ID             string    `db:"id"`
	RelationshipID string    `db:"relationship_id"`
	AssigneeID     string    `db:"assignee_id"`
	CreatedByID    string    `db:"created_by_id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	DueDate        null.Time `db:"due_date"`
	Status         string    `db:"status"`
	CompletedAt    null.Time `db:"completed_at"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func boilTask(t task.Task) taskRow {
	row := taskRow{
		ID:             t.ID,
		RelationshipID: t.RelationshipID,
		AssigneeID:     t.AssigneeID,
		CreatedByID:    t.CreatedByID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if !t.DueDate.IsZero() {
		row.DueDate = null.TimeFrom(t.DueDate)
	}
	if !t.CompletedAt.IsZero() {
		row.CompletedAt = null.TimeFrom(t.CompletedAt)
	}
	return row
}

func unboilTask(row taskRow) task.Task {
	return task.Task{
		ID:             row.ID,
		RelationshipID: row.RelationshipID,
		AssigneeID:     row.AssigneeID,
		CreatedByID:    row.CreatedByID,
		Title:          row.Title,
		Description:    row.Description,
		DueDate:        row.DueDate.Time,
		Status:         row.Status,
		CompletedAt:    row.CompletedAt.Time,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	row := boilTask(t)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO task (id, relationship_id, assignee_id, created_by_id, title, description,
		                  due_date, status, completed_at, created_at, updated_at)
		VALUES (:id, :relationship_id, :assignee_id, :created_by_id, :title, :description,
		        :due_date, :status, :completed_at, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM task WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return unboilTask(row), nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	query := `SELECT * FROM task`
	var (
		clauses []string
		args    []interface{}
	)

	if filter != nil {
		if filter.RelationshipID != "" {
			clauses = append(clauses, `relationship_id = ?`)
			args = append(args, filter.RelationshipID)
		}
		if filter.AssigneeID != "" {
			clauses = append(clauses, `assignee_id = ?`)
			args = append(args, filter.AssigneeID)
		}
		if filter.Status != "" {
			clauses = append(clauses, `status = ?`)
			args = append(args, filter.Status)
		}
		if filter.Overdue != nil {
			// overdue is derived: due in the past and not done
			if *filter.Overdue {
				clauses = append(clauses, `(due_date IS NOT NULL AND due_date < ? AND status <> ?)`)
			} else {
				clauses = append(clauses, `NOT (due_date IS NOT NULL AND due_date < ? AND status <> ?)`)
			}
			args = append(args, time.Now().UTC(), task.StatusDone)
		}
		if !filter.DueFrom.IsZero() {
			clauses = append(clauses, `due_date >= ?`)
			args = append(args, filter.DueFrom)
		}
		if !filter.DueTo.IsZero() {
			clauses = append(clauses, `due_date <= ?`)
			args = append(args, filter.DueTo)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, "created_at DESC")

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, unboilTask(row))
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	row := boilTask(t)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE task
		SET assignee_id = :assignee_id, title = :title, description = :description,
		    due_date = :due_date, status = :status, completed_at = :completed_at, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM task WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building deletion clause")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting tasks")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
