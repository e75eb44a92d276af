package repository

import (
	"context"
	"encoding/json"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// 班次、员工和覆盖需求整体以 jsonb 保存，排班问题只会整体读写
type problemDefinition struct {
	Shifts    []domain.ShiftType        `json:"shifts"`
	Employees []domain.Employee         `json:"employees"`
	Covers    []domain.CoverRequirement `json:"covers"`
}

func (r *Repository) CreateProblem(ctx context.Context, p *domain.Problem) error {
	definition, err := json.Marshal(problemDefinition{
		Shifts:    p.Shifts,
		Employees: p.Employees,
		Covers:    p.Covers,
	})
	if err != nil {
		return err
	}

	query := `
		INSERT INTO problems (name, days, employee_count, shift_count, definition)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{p.Name, p.Days, len(p.Employees), len(p.Shifts), definition}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.Version)
}

func (r *Repository) GetProblemByID(ctx context.Context, id int64) (*domain.Problem, error) {
	query := `
		SELECT name, days, definition, created_at, version
		FROM problems WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := &domain.Problem{
		ID: id,
	}

	var definition []byte
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&p.Name, &p.Days, &definition, &p.CreatedAt, &p.Version); err != nil {
		return nil, err
	}

	var def problemDefinition
	if err := json.Unmarshal(definition, &def); err != nil {
		return nil, err
	}
	p.Shifts = def.Shifts
	p.Employees = def.Employees
	p.Covers = def.Covers

	return p, nil
}

func (r *Repository) GetAllProblems(ctx context.Context) ([]*domain.ProblemMeta, error) {
	query := `
		SELECT id, name, days, employee_count, shift_count, created_at
		FROM problems ORDER BY id DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	problems := make([]*domain.ProblemMeta, 0)
	for rows.Next() {
		meta := &domain.ProblemMeta{}
		dst := []any{&meta.ID, &meta.Name, &meta.Days, &meta.EmployeeCount, &meta.ShiftCount, &meta.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		problems = append(problems, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return problems, nil
}

// DeleteProblem 会级联删除该问题的所有求解记录
func (r *Repository) DeleteProblem(ctx context.Context, id int64) error {
	query := `DELETE FROM problems WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}
