package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/repository"
)

// sourceBatchSize bounds the number of placeholders per ExistingSources query.
const sourceBatchSize = 500

const taskColumns = `id, title, description, category, deadline, pre_submission_date,
priority, status, source, has_info_session, requires_registration, created_at, updated_at`

type TaskRepo struct {
	db           *sql.DB
	queryBuilder *TaskQueryBuilder
	now          func() time.Time
}

// Option configures a TaskRepo.
type Option func(*TaskRepo)

// WithClock overrides the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *TaskRepo) { r.now = now }
}

func NewTaskRepo(db *sql.DB, opts ...Option) *TaskRepo {
	r := &TaskRepo{
		db:           db,
		queryBuilder: NewTaskQueryBuilder(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repository.TaskRepository = (*TaskRepo)(nil)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s rowScanner) (*entity.Task, error) {
	var (
		t                         entity.Task
		category, priority, state string
		pre, updated              sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &category, &t.Deadline, &pre,
		&priority, &state, &t.Source, &t.HasInfoSession, &t.RequiresRegistration,
		&t.CreatedAt, &updated); err != nil {
		return nil, err
	}
	t.Category = entity.Category(category)
	t.Priority = entity.Priority(priority)
	t.Status = entity.Status(state)
	if pre.Valid {
		v := pre.Time
		t.PreSubmissionDate = &v
	}
	if updated.Valid {
		v := updated.Time
		t.UpdatedAt = &v
	}
	return &t, nil
}

// columnTime rounds t down to the microsecond resolution of timestamptz so
// the task returned by Create equals the one later read back.
func columnTime(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (repo *TaskRepo) queryTasks(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Task, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*entity.Task, 0, 100)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (repo *TaskRepo) Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error) {
	const query = `
INSERT INTO tasks
(id, title, description, category, deadline, pre_submission_date,
 priority, status, source, has_info_session, requires_registration, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if draft.PreSubmissionDate != nil {
		pre := columnTime(*draft.PreSubmissionDate)
		draft.PreSubmissionDate = &pre
	}
	task := &entity.Task{
		ID:                   uuid.NewString(),
		Title:                draft.Title,
		Description:          draft.Description,
		Category:             draft.Category,
		Deadline:             columnTime(draft.Deadline),
		PreSubmissionDate:    draft.PreSubmissionDate,
		Priority:             draft.Priority,
		Status:               draft.Status,
		Source:               draft.Source,
		HasInfoSession:       draft.HasInfoSession,
		RequiresRegistration: draft.RequiresRegistration,
		CreatedAt:            columnTime(repo.now()),
	}
	_, err := repo.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Category), task.Deadline,
		nullTime(task.PreSubmissionDate), string(task.Priority), string(task.Status),
		task.Source, task.HasInfoSession, task.RequiresRegistration, task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("Create: ExecContext: %w", err)
	}
	return task, nil
}

func (repo *TaskRepo) Get(ctx context.Context, id string) (*entity.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 LIMIT 1`
	t, err := scanTask(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return t, nil
}

func (repo *TaskRepo) List(ctx context.Context) ([]*entity.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY deadline ASC, id ASC`
	return repo.queryTasks(ctx, "List", query)
}

func (repo *TaskRepo) FindBySource(ctx context.Context, source string, limit int) ([]*entity.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE source = $1 ORDER BY deadline ASC LIMIT $2`
	return repo.queryTasks(ctx, "FindBySource", query, source, limit)
}

// Update applies patch with a single UPDATE ... RETURNING round trip.
func (repo *TaskRepo) Update(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error) {
	set, args := repo.queryBuilder.BuildSetClause(patch, repo.now())
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`, set, len(args), taskColumns)

	t, err := scanTask(repo.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return t, nil
}

func (repo *TaskRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
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

// ExistingSources はバッチで source 存在チェックを行い、N+1問題を解消する
func (repo *TaskRepo) ExistingSources(ctx context.Context, sources []string) (map[string]bool, error) {
	result := make(map[string]bool, len(sources))
	for start := 0; start < len(sources); start += sourceBatchSize {
		end := min(start+sourceBatchSize, len(sources))
		list, args := repo.queryBuilder.BuildInList(sources[start:end], 1)
		query := `SELECT DISTINCT source FROM tasks WHERE source IN (` + list + `)`

		if err := repo.collectSources(ctx, query, args, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (repo *TaskRepo) collectSources(ctx context.Context, query string, args []interface{}, into map[string]bool) error {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ExistingSources: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return fmt.Errorf("ExistingSources: Scan: %w", err)
		}
		into[source] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ExistingSources: rows.Err: %w", err)
	}
	return nil
}
