package scheduler

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// looseEmployee 几乎没有限制的员工
func looseEmployee(name string, days int) domain.Employee {
	return domain.Employee{
		Name:                  name,
		MaxTotalMinutes:       days * 24 * 60,
		MinTotalMinutes:       0,
		MaxConsecutiveShifts:  days,
		MinConsecutiveShifts:  1,
		MinConsecutiveDaysOff: 0,
		MaxWeekends:           days,
	}
}

func dayShift() domain.ShiftType {
	return domain.ShiftType{Name: "D", Duration: 480}
}

func newProblem(days int, shifts []domain.ShiftType, employees ...domain.Employee) *domain.Problem {
	return &domain.Problem{
		Name:      "test",
		Days:      days,
		Shifts:    shifts,
		Employees: employees,
	}
}

// mustMatrix 每个字符串是一个员工的排班，天与天之间以空格分隔，"-" 表示休息
func mustMatrix(t *testing.T, p *domain.Problem, rows ...string) *Matrix {
	t.Helper()

	schedule := make([][]string, len(rows))
	for i, row := range rows {
		for _, cell := range strings.Fields(row) {
			if cell == "-" {
				cell = ""
			}
			schedule[i] = append(schedule[i], cell)
		}
	}

	m, err := MatrixFromNames(p, schedule)
	require.NoError(t, err)
	return m
}

func mustEvaluator(t *testing.T, p *domain.Problem) *Evaluator {
	t.Helper()

	e, err := NewEvaluator(p, DefaultHardPenalty)
	require.NoError(t, err)
	return e
}

// wardProblem 一个规模适中、约束较多的问题
func wardProblem() *domain.Problem {
	shifts := []domain.ShiftType{
		{Name: "E", Duration: 480, NotFollowedBy: nil},
		{Name: "D", Duration: 510, NotFollowedBy: []string{"E"}},
		{Name: "L", Duration: 600, NotFollowedBy: []string{"E", "D"}},
	}

	days := 14
	p := &domain.Problem{Name: "ward", Days: days, Shifts: shifts}
	for i, name := range []string{"A", "B", "C", "D", "E", "F"} {
		p.Employees = append(p.Employees, domain.Employee{
			Name:                  name,
			MaxShifts:             map[string]int{"E": 14, "D": 14, "L": 3},
			MaxTotalMinutes:       4800,
			MinTotalMinutes:       2400,
			MaxConsecutiveShifts:  5,
			MinConsecutiveShifts:  2,
			MinConsecutiveDaysOff: 2,
			MaxWeekends:           1,
			DaysOff:               []int{i % days},
			ShiftOnRequests:       []domain.ShiftRequest{{Day: (i + 3) % days, Shift: "E", Weight: 2}},
			ShiftOffRequests:      []domain.ShiftRequest{{Day: (i + 5) % days, Shift: "D", Weight: 3}},
		})
	}
	for day := 0; day < days; day++ {
		p.Covers = append(p.Covers,
			domain.CoverRequirement{Day: day, Shift: "E", Requirement: 2, UnderWeight: 100, OverWeight: 1},
			domain.CoverRequirement{Day: day, Shift: "D", Requirement: 1, UnderWeight: 100, OverWeight: 1},
		)
	}
	return p
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
