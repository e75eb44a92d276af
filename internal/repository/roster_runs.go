package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

const rosterRunColumns = `
	id, problem_id, parameters, status, fitness, hard_violations, soft_score, feasible,
	generations, schedule, notify_email, error, created_at, finished_at, version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRosterRun(row rowScanner) (*domain.RosterRun, error) {
	run := &domain.RosterRun{}

	var parameters, schedule []byte
	dst := []any{
		&run.ID, &run.ProblemID, &parameters, &run.Status, &run.Fitness, &run.HardViolations, &run.SoftScore, &run.Feasible,
		&run.Generations, &schedule, &run.NotifyEmail, &run.Error, &run.CreatedAt, &run.FinishedAt, &run.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	// 还没有完成的运行没有排班结果
	if schedule != nil {
		if err := json.Unmarshal(schedule, &run.Schedule); err != nil {
			return nil, err
		}
	}

	return run, nil
}

func (r *Repository) CreateRosterRun(ctx context.Context, run *domain.RosterRun) error {
	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO roster_runs (id, problem_id, parameters, status, notify_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	run.Status = domain.RosterRunQueued
	args := []any{run.ID, run.ProblemID, parameters, run.Status, run.NotifyEmail}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.CreatedAt, &run.Version)
}

func (r *Repository) GetRosterRunByID(ctx context.Context, id uuid.UUID) (*domain.RosterRun, error) {
	query := `SELECT ` + rosterRunColumns + ` FROM roster_runs WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanRosterRun(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetRosterRunsByProblemID(ctx context.Context, problemID int64) ([]*domain.RosterRun, error) {
	query := `SELECT ` + rosterRunColumns + ` FROM roster_runs WHERE problem_id = $1 ORDER BY created_at DESC`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.RosterRun, 0)
	for rows.Next() {
		run, err := scanRosterRun(rows)
		if err != nil {
			return nil, err
		}
		// 列表接口不返回排班表，避免响应过大
		run.Schedule = nil
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// StartRosterRun 只有排队中的运行才能开始，否则返回 sql.ErrNoRows
// 同一条消息被重复投递时据此跳过
func (r *Repository) StartRosterRun(ctx context.Context, run *domain.RosterRun) error {
	query := `
		UPDATE roster_runs
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, domain.RosterRunRunning, run.ID, domain.RosterRunQueued).Scan(&run.Version); err != nil {
		return err
	}
	run.Status = domain.RosterRunRunning

	return nil
}

func (r *Repository) CompleteRosterRun(ctx context.Context, run *domain.RosterRun) error {
	schedule, err := json.Marshal(run.Schedule)
	if err != nil {
		return err
	}

	query := `
		UPDATE roster_runs
		SET
			status = $1,
			fitness = $2,
			hard_violations = $3,
			soft_score = $4,
			feasible = $5,
			generations = $6,
			schedule = $7,
			finished_at = NOW(),
			version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING finished_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{domain.RosterRunCompleted, run.Fitness, run.HardViolations, run.SoftScore, run.Feasible, run.Generations, schedule, run.ID, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.RosterRunCompleted

	return nil
}

func (r *Repository) FailRosterRun(ctx context.Context, run *domain.RosterRun, reason string) error {
	query := `
		UPDATE roster_runs
		SET status = $1, error = $2, finished_at = NOW(), version = version + 1
		WHERE id = $3
		RETURNING finished_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, domain.RosterRunFailed, reason, run.ID).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.RosterRunFailed
	run.Error = reason

	return nil
}

// DeleteQueuedRosterRun 在消息投递失败时撤销刚创建的运行
func (r *Repository) DeleteQueuedRosterRun(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status domain.RosterRunStatus
	if err := tx.QueryRowContext(ctx, `SELECT status FROM roster_runs WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
		return err
	}
	if status != domain.RosterRunQueued {
		// worker 已经拿到了这条消息
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_runs WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}
