package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func TestEvaluateFullyAssignedSingleEmployee(t *testing.T) {
	p := newProblem(3, []domain.ShiftType{dayShift()}, domain.Employee{
		Name:                  "A",
		MinTotalMinutes:       0,
		MaxTotalMinutes:       1440,
		MaxConsecutiveShifts:  3,
		MinConsecutiveShifts:  1,
		MinConsecutiveDaysOff: 0,
		MaxWeekends:           7,
	})
	e := mustEvaluator(t, p)
	m := mustMatrix(t, p, "D D D")

	assert.Equal(t, Score{Hard: 0, Soft: 0}, e.Score(m))
	assert.Zero(t, e.Evaluate(m))
	assert.True(t, e.IsFeasible(m))
}

func TestEvaluateIsPure(t *testing.T) {
	p := wardProblem()
	e := mustEvaluator(t, p)
	m := randomMatrix(11, len(p.Employees), p.Days, len(p.Shifts))
	snapshot := m.Clone()

	first := e.Score(m)
	second := e.Score(m)

	assert.Equal(t, first, second)
	assert.Equal(t, e.Evaluate(m), e.Evaluate(m))
	assert.True(t, m.Equal(snapshot))
}

func TestIsFeasibleMatchesHardViolations(t *testing.T) {
	p := wardProblem()
	e := mustEvaluator(t, p)

	gen, err := NewMixedGenerator(p, newRand(4))
	require.NoError(t, err)

	for _, m := range gen.Generate(40) {
		assert.Equal(t, e.Score(m).Hard == 0, e.IsFeasible(m))
	}
}

func TestFitnessAddsHardPenalty(t *testing.T) {
	p := newProblem(2, []domain.ShiftType{dayShift()}, looseEmployee("A", 2))
	p.Employees[0].DaysOff = []int{1}
	p.Employees[0].ShiftOffRequests = []domain.ShiftRequest{{Day: 0, Shift: "D", Weight: 4}}

	e, err := NewEvaluator(p, 1000)
	require.NoError(t, err)
	m := mustMatrix(t, p, "D D")

	assert.Equal(t, Score{Hard: 1, Soft: 4}, e.Score(m))
	assert.Equal(t, 1004.0, e.Evaluate(m))
	assert.False(t, e.IsFeasible(m))
}

func TestWeekendWorkedTwiceCountsOnce(t *testing.T) {
	emp := looseEmployee("A", 14)
	emp.MaxWeekends = 1
	p := newProblem(14, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	// 第 5、6 天是同一个周末
	both := mustMatrix(t, p, "- - - - - D D - - - - - - -")
	assert.Zero(t, e.Score(both).Hard)

	// 两个不同的周末
	two := mustMatrix(t, p, "- - - - - D D - - - - - D -")
	assert.Equal(t, 1, e.Score(two).Hard)

	sundays := mustMatrix(t, p, "- - - - - - D - - - - - - D")
	assert.Equal(t, 1, e.Score(sundays).Hard)
}

func TestWeekendLimitZero(t *testing.T) {
	emp := looseEmployee("A", 7)
	emp.MaxWeekends = 0
	p := newProblem(7, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "- - - - - D D")).Hard)
	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "- - - - - - D")).Hard)
	assert.Zero(t, e.Score(mustMatrix(t, p, "D D D D D - -")).Hard)
}

func TestSectionCoverPenalty(t *testing.T) {
	p := newProblem(1, []domain.ShiftType{dayShift()},
		looseEmployee("A", 1), looseEmployee("B", 1), looseEmployee("C", 1))
	p.Covers = []domain.CoverRequirement{{Day: 0, Shift: "D", Requirement: 2, UnderWeight: 10, OverWeight: 5}}
	e := mustEvaluator(t, p)

	tests := []struct {
		name string
		rows []string
		want int
	}{
		{"under", []string{"D", "-", "-"}, 10},
		{"exact", []string{"D", "D", "-"}, 0},
		{"over", []string{"D", "D", "D"}, 5},
		{"nobody", []string{"-", "-", "-"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := e.Score(mustMatrix(t, p, tt.rows...))
			assert.Equal(t, tt.want, score.Soft)
		})
	}
}

func TestCoverOnlyCountsItsDay(t *testing.T) {
	p := newProblem(2, []domain.ShiftType{dayShift()}, looseEmployee("A", 2))
	p.Covers = []domain.CoverRequirement{{Day: 1, Shift: "D", Requirement: 1, UnderWeight: 7, OverWeight: 3}}
	e := mustEvaluator(t, p)

	assert.Equal(t, 7, e.Score(mustMatrix(t, p, "D -")).Soft)
	assert.Zero(t, e.Score(mustMatrix(t, p, "- D")).Soft)
}

func TestNotFollowedBy(t *testing.T) {
	shifts := []domain.ShiftType{
		{Name: "D", Duration: 480},
		{Name: "N", Duration: 600, NotFollowedBy: []string{"D"}},
	}
	p := newProblem(3, shifts, looseEmployee("A", 3))
	e := mustEvaluator(t, p)

	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "N D -")).Hard)
	assert.Zero(t, e.Score(mustMatrix(t, p, "D N -")).Hard)
	assert.Zero(t, e.Score(mustMatrix(t, p, "N - D")).Hard)
}

func TestMandatoryDayOff(t *testing.T) {
	emp := looseEmployee("A", 3)
	emp.DaysOff = []int{1}
	p := newProblem(3, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "D D D")).Hard)
	assert.Zero(t, e.Score(mustMatrix(t, p, "D - D")).Hard)
}

func TestConsecutiveShiftBounds(t *testing.T) {
	emp := looseEmployee("A", 7)
	emp.MinConsecutiveShifts = 3
	emp.MaxConsecutiveShifts = 3
	p := newProblem(7, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	tests := []struct {
		name string
		row  string
		want int
	}{
		{"short run in the middle", "- D D - - - -", 1},
		{"short run from the first day is not checked", "D D - - - - -", 0},
		{"short run still going at the end is not checked", "- - - - - D D", 0},
		{"short run ended by an off last day is not checked", "- - - - D D -", 0},
		{"short run ended the day before the last is checked", "- - - D D - -", 1},
		{"exact run", "- D D D - - -", 0},
		{"two days too long", "- D D D D D -", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Score(mustMatrix(t, p, tt.row)).Hard)
		})
	}
}

func TestMinConsecutiveDaysOff(t *testing.T) {
	emp := looseEmployee("A", 6)
	emp.MinConsecutiveDaysOff = 2
	p := newProblem(6, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "D - D D D D")).Hard)
	assert.Zero(t, e.Score(mustMatrix(t, p, "D - - D D D")).Hard)
	// 从第 0 天开始的休息长度未知，不检查
	assert.Zero(t, e.Score(mustMatrix(t, p, "- D D D D D")).Hard)
	// 排班周期结束时仍在休息，不检查
	assert.Zero(t, e.Score(mustMatrix(t, p, "D D D D D -")).Hard)
}

func TestShiftCountAndMinuteBounds(t *testing.T) {
	emp := looseEmployee("A", 3)
	emp.MaxShifts = map[string]int{"D": 1}
	emp.MinTotalMinutes = 600
	emp.MaxTotalMinutes = 1000
	p := newProblem(3, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	// 480 分钟不足 600
	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "D - -")).Hard)
	// 两次 D 超过上限 1 次，960 分钟在范围内
	assert.Equal(t, 1, e.Score(mustMatrix(t, p, "D D -")).Hard)
	// 三次 D 超过上限，1440 分钟超过 1000
	assert.Equal(t, 2, e.Score(mustMatrix(t, p, "D D D")).Hard)
}

func TestUnlistedShiftHasNoLimit(t *testing.T) {
	emp := looseEmployee("A", 5)
	emp.MaxShifts = map[string]int{}
	p := newProblem(5, []domain.ShiftType{dayShift()}, emp)
	e := mustEvaluator(t, p)

	assert.Zero(t, e.Score(mustMatrix(t, p, "D D D D D")).Hard)
}

func TestShiftRequestPenalties(t *testing.T) {
	shifts := []domain.ShiftType{dayShift(), {Name: "L", Duration: 600}}
	emp := looseEmployee("A", 3)
	emp.ShiftOnRequests = []domain.ShiftRequest{{Day: 1, Shift: "D", Weight: 3}}
	emp.ShiftOffRequests = []domain.ShiftRequest{{Day: 2, Shift: "D", Weight: 4}}
	p := newProblem(3, shifts, emp)
	e := mustEvaluator(t, p)

	assert.Equal(t, 7, e.Score(mustMatrix(t, p, "D - D")).Soft)
	assert.Zero(t, e.Score(mustMatrix(t, p, "D D L")).Soft)
	// 请求上 D 却上了 L 不算惩罚
	assert.Zero(t, e.Score(mustMatrix(t, p, "- L -")).Soft)
}

func TestBreakdownMatchesScore(t *testing.T) {
	p := wardProblem()
	e := mustEvaluator(t, p)
	m := randomMatrix(21, len(p.Employees), p.Days, len(p.Shifts))

	b := e.Breakdown(m)
	require.Len(t, b.Employees, len(p.Employees))

	hard, soft := 0, b.CoverPenalty
	for i, es := range b.Employees {
		assert.Equal(t, p.Employees[i].Name, es.Employee)
		hard += es.Hard
		soft += es.Soft
	}
	assert.Equal(t, e.Score(m), Score{Hard: hard, Soft: soft})
}

func TestNewEvaluatorRejectsMalformedProblem(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.Problem)
	}{
		{"zero days", func(p *domain.Problem) { p.Days = 0 }},
		{"zero duration", func(p *domain.Problem) { p.Shifts[0].Duration = 0 }},
		{"min above max minutes", func(p *domain.Problem) { p.Employees[0].MinTotalMinutes = p.Employees[0].MaxTotalMinutes + 1 }},
		{"day off out of range", func(p *domain.Problem) { p.Employees[0].DaysOff = []int{3} }},
		{"unknown follow shift", func(p *domain.Problem) { p.Shifts[0].NotFollowedBy = []string{"X"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProblem(3, []domain.ShiftType{dayShift()}, looseEmployee("A", 3))
			tt.mutate(p)

			_, err := NewEvaluator(p, DefaultHardPenalty)
			assert.Error(t, err)
		})
	}
}
