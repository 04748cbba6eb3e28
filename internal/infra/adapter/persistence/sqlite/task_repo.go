// Package sqlite provides SQLite implementations of repository interfaces,
// used for single-node deployments and local runs of the worker and batch CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/repository"
)

const sourceBatchSize = 500

const selectTasks = `
SELECT id, title, description, category, deadline, pre_submission_date,
       priority, status, source, has_info_session, requires_registration,
       created_at, updated_at
FROM tasks`

// TaskRepo implements repository.TaskRepository using SQLite.
type TaskRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewTaskRepo creates a new SQLite-backed task repository.
// now may be nil, in which case the wall clock in UTC is used.
func NewTaskRepo(db *sql.DB, now func() time.Time) *TaskRepo {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TaskRepo{db: db, now: now}
}

var _ repository.TaskRepository = (*TaskRepo)(nil)

func scanTask(scan func(dest ...interface{}) error) (*entity.Task, error) {
	var (
		t                          entity.Task
		category, priority, status string
		pre, updated               sql.NullTime
	)
	err := scan(&t.ID, &t.Title, &t.Description, &category, &t.Deadline, &pre,
		&priority, &status, &t.Source, &t.HasInfoSession, &t.RequiresRegistration,
		&t.CreatedAt, &updated)
	if err != nil {
		return nil, err
	}
	t.Category, t.Priority, t.Status = entity.Category(category), entity.Priority(priority), entity.Status(status)
	if pre.Valid {
		t.PreSubmissionDate = &pre.Time
	}
	if updated.Valid {
		t.UpdatedAt = &updated.Time
	}
	return &t, nil
}

// List retrieves all tasks ordered by deadline (soonest first).
func (repo *TaskRepo) List(ctx context.Context) ([]*entity.Task, error) {
	return repo.query(ctx, "List", selectTasks+` ORDER BY deadline ASC, id ASC`)
}

func (repo *TaskRepo) FindBySource(ctx context.Context, source string, limit int) ([]*entity.Task, error) {
	return repo.query(ctx, "FindBySource",
		selectTasks+` WHERE source = ? ORDER BY deadline ASC LIMIT ?`, source, limit)
}

func (repo *TaskRepo) query(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Task, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: QueryContext: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*entity.Task, 0, 100)
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (repo *TaskRepo) Get(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(repo.db.QueryRowContext(ctx, selectTasks+` WHERE id = ? LIMIT 1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // データが存在しない場合はエラーではない
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return t, nil
}

func (repo *TaskRepo) Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error) {
	const query = `
INSERT INTO tasks
(id, title, description, category, deadline, pre_submission_date,
 priority, status, source, has_info_session, requires_registration, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	id := uuid.NewString()
	createdAt := repo.now()
	// timestamps are stored as text, so a single offset keeps ORDER BY deadline correct
	draft.Deadline = draft.Deadline.UTC()
	var pre interface{}
	if draft.PreSubmissionDate != nil {
		utc := draft.PreSubmissionDate.UTC()
		draft.PreSubmissionDate = &utc
		pre = utc
	}

	_, err := repo.db.ExecContext(ctx, query,
		id, draft.Title, draft.Description, string(draft.Category), draft.Deadline, pre,
		string(draft.Priority), string(draft.Status), draft.Source,
		draft.HasInfoSession, draft.RequiresRegistration, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("Create: ExecContext: %w", err)
	}

	return &entity.Task{
		ID:                   id,
		Title:                draft.Title,
		Description:          draft.Description,
		Category:             draft.Category,
		Deadline:             draft.Deadline,
		PreSubmissionDate:    draft.PreSubmissionDate,
		Priority:             draft.Priority,
		Status:               draft.Status,
		Source:               draft.Source,
		HasInfoSession:       draft.HasInfoSession,
		RequiresRegistration: draft.RequiresRegistration,
		CreatedAt:            createdAt,
	}, nil
}

// Update runs the UPDATE and the read-back in one transaction.
func (repo *TaskRepo) Update(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error) {
	set, args := buildSetClause(patch, repo.now())
	args = append(args, id)

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Update: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE tasks SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("Update: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("Update: RowsAffected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("Update: %w", entity.ErrNotFound)
	}

	t, err := scanTask(tx.QueryRowContext(ctx, selectTasks+` WHERE id = ?`, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("Update: reload: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Update: Commit: %w", err)
	}
	return t, nil
}

func (repo *TaskRepo) Delete(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

// ExistingSources はバッチで source 存在チェックを行う
func (repo *TaskRepo) ExistingSources(ctx context.Context, sources []string) (map[string]bool, error) {
	result := make(map[string]bool, len(sources))

	for len(sources) > 0 {
		n := min(sourceBatchSize, len(sources))
		chunk := sources[:n]
		sources = sources[n:]

		args := make([]interface{}, len(chunk))
		for i, s := range chunk {
			args[i] = s
		}
		query := `SELECT DISTINCT source FROM tasks WHERE source IN (?` + strings.Repeat(", ?", len(chunk)-1) + `)`

		rows, err := repo.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("ExistingSources: QueryContext: %w", err)
		}
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("ExistingSources: Scan: %w", err)
			}
			result[s] = true
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("ExistingSources: rows.Err: %w", err)
		}
	}
	return result, nil
}
