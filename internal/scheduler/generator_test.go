package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func row(m *Matrix, p *domain.Problem, i int) []string {
	return m.Names(p)[i]
}

func TestRandomGeneratorFillsEveryCell(t *testing.T) {
	p := wardProblem()
	gen, err := NewRandomGenerator(p, newRand(1))
	require.NoError(t, err)

	pop := gen.Generate(10)
	require.Len(t, pop, 10)

	seenOff, seenShift := false, false
	for _, m := range pop {
		require.Equal(t, len(p.Employees), m.Rows())
		require.Equal(t, p.Days, m.Cols())
		for i := 0; i < m.Rows(); i++ {
			for j := 0; j < m.Cols(); j++ {
				v := m.At(i, j)
				require.True(t, v >= Off && v < len(p.Shifts))
				seenOff = seenOff || v == Off
				seenShift = seenShift || v != Off
			}
		}
	}
	assert.True(t, seenOff)
	assert.True(t, seenShift)
}

func TestGreedyPrefersShortestShift(t *testing.T) {
	shifts := []domain.ShiftType{{Name: "L", Duration: 600}, {Name: "D", Duration: 480}}
	p := newProblem(5, shifts, looseEmployee("A", 5))
	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)

	m := gen.Generate(1)[0]
	assert.Equal(t, []string{"D", "D", "D", "D", "D"}, row(m, p, 0))
}

func TestGreedyRepairClearsShortRun(t *testing.T) {
	emp := looseEmployee("A", 4)
	emp.MinConsecutiveShifts = 3
	emp.MaxConsecutiveShifts = 5
	emp.MinConsecutiveDaysOff = 2
	emp.DaysOff = []int{2}
	p := newProblem(4, []domain.ShiftType{dayShift()}, emp)

	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)
	m := gen.Generate(1)[0]

	// 第 2 天被迫休息时只上了 2 天，这两天被回退成休息
	assert.Equal(t, []string{"", "", "", "D"}, row(m, p, 0))
	assert.Zero(t, mustEvaluator(t, p).Score(m).Hard)
}

func TestGreedyRepairRollsBackMinutes(t *testing.T) {
	emp := looseEmployee("A", 5)
	emp.MinConsecutiveShifts = 2
	emp.MaxTotalMinutes = 960
	emp.DaysOff = []int{1}
	p := newProblem(5, []domain.ShiftType{dayShift()}, emp)

	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)
	m := gen.Generate(1)[0]

	// 第 0 天的 480 分钟被回退，所以第 2、3 天还能上班
	assert.Equal(t, []string{"", "", "D", "D", ""}, row(m, p, 0))
	assert.True(t, mustEvaluator(t, p).IsFeasible(m))
}

func TestGreedyRepairRollsBackShiftCounts(t *testing.T) {
	shifts := []domain.ShiftType{dayShift(), {Name: "L", Duration: 600}}
	emp := looseEmployee("A", 5)
	emp.MinConsecutiveShifts = 2
	emp.MaxShifts = map[string]int{"D": 2, "L": 0}
	emp.DaysOff = []int{1}
	p := newProblem(5, shifts, emp)

	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)
	m := gen.Generate(1)[0]

	assert.Equal(t, []string{"", "", "D", "D", ""}, row(m, p, 0))
	assert.True(t, mustEvaluator(t, p).IsFeasible(m))
}

func TestGreedyRepairUndoesWeekendOnce(t *testing.T) {
	emp := looseEmployee("A", 21)
	emp.MinConsecutiveShifts = 3
	emp.MaxConsecutiveShifts = 7
	emp.MaxWeekends = 1
	// 第一个周末开始的两天上班在周一被回退，周末数回到 0，第二个周末可以上班，第三个周末不行
	emp.DaysOff = []int{0, 1, 2, 3, 4, 7, 11, 15, 18}
	p := newProblem(21, []domain.ShiftType{dayShift()}, emp)

	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)
	m := gen.Generate(1)[0]

	want := []string{
		"", "", "", "", "", "", "",
		"", "D", "D", "D", "", "D", "D",
		"D", "", "", "", "", "", "",
	}
	assert.Equal(t, want, row(m, p, 0))
	assert.True(t, mustEvaluator(t, p).IsFeasible(m))
}

func TestGreedyRespectsWeekendLimit(t *testing.T) {
	emp := looseEmployee("A", 14)
	emp.MaxWeekends = 0
	emp.MaxConsecutiveShifts = 7
	p := newProblem(14, []domain.ShiftType{dayShift()}, emp)

	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)
	m := gen.Generate(1)[0]

	for day := 0; day < p.Days; day++ {
		if isWeekend(day) {
			assert.Equal(t, Off, m.At(0, day), "day %d", day)
		} else {
			assert.NotEqual(t, Off, m.At(0, day), "day %d", day)
		}
	}
	assert.True(t, mustEvaluator(t, p).IsFeasible(m))
}

func TestGreedyForcedRest(t *testing.T) {
	tests := []struct {
		name   string
		days   int
		modify func(e *domain.Employee)
		want   string
	}{
		{
			// 周末上限足够大，周六因为已经满足最小连续班次而休息，周日因为周六没上班而休息
			name:   "weekend avoided without weekend limit",
			days:   14,
			modify: func(e *domain.Employee) { e.MaxConsecutiveShifts = 7 },
			want:   "D D D D D - - D D D D D - -",
		},
		{
			// 最小连续班次还没满足时周六照常上班，周日接着上
			name: "saturday worked until minimum run is met",
			days: 7,
			modify: func(e *domain.Employee) {
				e.MaxConsecutiveShifts = 7
				e.MinConsecutiveShifts = 2
				e.DaysOff = []int{0, 1, 2, 3}
			},
			want: "- - - - D D D",
		},
		{
			// 休息开始后要休满 3 天才能再上班
			name: "days off held until minimum is reached",
			days: 7,
			modify: func(e *domain.Employee) {
				e.MinConsecutiveDaysOff = 3
				e.MaxConsecutiveShifts = 2
			},
			want: "D D - - - D D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp := looseEmployee("A", tt.days)
			tt.modify(&emp)
			p := newProblem(tt.days, []domain.ShiftType{dayShift()}, emp)

			gen, err := NewGreedyRepairGenerator(p, newRand(1))
			require.NoError(t, err)
			m := gen.Generate(1)[0]

			assert.Equal(t, mustMatrix(t, p, tt.want).Names(p), m.Names(p))
			assert.True(t, mustEvaluator(t, p).IsFeasible(m))
		})
	}
}

func TestGreedyRespectsForbiddenSequence(t *testing.T) {
	shifts := []domain.ShiftType{
		{Name: "N", Duration: 400, NotFollowedBy: []string{"N"}},
		{Name: "D", Duration: 480},
	}
	p := newProblem(4, shifts, looseEmployee("A", 4))

	gen, err := NewGreedyRepairGenerator(p, newRand(1))
	require.NoError(t, err)
	m := gen.Generate(1)[0]

	assert.Equal(t, []string{"N", "D", "N", "D"}, row(m, p, 0))
}

func TestGreedyIsFeasibleOnWard(t *testing.T) {
	p := wardProblem()
	gen, err := NewGreedyRepairGenerator(p, newRand(8))
	require.NoError(t, err)
	e := mustEvaluator(t, p)

	for _, m := range gen.Generate(5) {
		require.Equal(t, len(p.Employees), m.Rows())
		b := e.Breakdown(m)
		for _, es := range b.Employees {
			// 贪心不保证最小总时长，其余硬约束都应满足
			assert.LessOrEqual(t, es.Hard, 1, es.Employee)
		}
	}
}

func TestMixedGeneratorSplitsPopulation(t *testing.T) {
	p := newProblem(7, []domain.ShiftType{dayShift()}, looseEmployee("A", 7), looseEmployee("B", 7))
	gen, err := NewMixedGenerator(p, newRand(2))
	require.NoError(t, err)

	pop := gen.Generate(5)
	require.Len(t, pop, 5)

	// 只有一个班次时贪心结果是确定的
	assert.True(t, pop[0].Equal(pop[1]))
	assert.True(t, pop[1].Equal(pop[2]))
}

func TestNewGenerator(t *testing.T) {
	p := wardProblem()

	for _, kind := range []domain.GeneratorKind{domain.GeneratorGreedy, domain.GeneratorRandom, domain.GeneratorMixed, ""} {
		gen, err := NewGenerator(kind, p, newRand(1))
		require.NoError(t, err, kind)
		assert.Len(t, gen.Generate(3), 3)
	}

	_, err := NewGenerator("annealing", p, newRand(1))
	assert.Error(t, err)
}
