package scheduler

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// Generator 生成初始种群
type Generator interface {
	Generate(size int) []*Matrix
}

// RandomGenerator 每个格子都从 {休息, 各班次} 中均匀随机选择
type RandomGenerator struct {
	rules *rules
	rng   *rand.Rand
}

func NewRandomGenerator(problem *domain.Problem, rng *rand.Rand) (*RandomGenerator, error) {
	r, err := compileRules(problem)
	if err != nil {
		return nil, err
	}
	return &RandomGenerator{rules: r, rng: rng}, nil
}

func (g *RandomGenerator) Generate(size int) []*Matrix {
	pop := make([]*Matrix, 0, size)
	shiftCount := g.rules.shiftCount()

	for n := 0; n < size; n++ {
		m := NewMatrix(len(g.rules.employees), g.rules.days, shiftCount)
		for i := 0; i < m.Rows(); i++ {
			for day := 0; day < m.Cols(); day++ {
				// -1 即 Off
				m.Set(i, day, g.rng.Intn(shiftCount+1)-1)
			}
		}
		pop = append(pop, m)
	}

	return pop
}

// 还没有开始休息时的休息天数，保证第一段上班不会被当成休息太短
const unboundedStreak = math.MaxInt32

func addStreak(streak int, n int) int {
	if streak >= unboundedStreak-n {
		return unboundedStreak
	}
	return streak + n
}

// GreedyRepairGenerator 按天贪心地给每个员工排最短的可行班次
// 当一段上班因为被迫休息而短于最小连续班次时，回退这段上班
type GreedyRepairGenerator struct {
	rules *rules
	rng   *rand.Rand
}

func NewGreedyRepairGenerator(problem *domain.Problem, rng *rand.Rand) (*GreedyRepairGenerator, error) {
	r, err := compileRules(problem)
	if err != nil {
		return nil, err
	}
	return &GreedyRepairGenerator{rules: r, rng: rng}, nil
}

func (g *GreedyRepairGenerator) Generate(size int) []*Matrix {
	pop := make([]*Matrix, 0, size)
	for n := 0; n < size; n++ {
		pop = append(pop, g.generateOne())
	}
	return pop
}

func (g *GreedyRepairGenerator) generateOne() *Matrix {
	m := NewMatrix(len(g.rules.employees), g.rules.days, g.rules.shiftCount())
	for i := range g.rules.employees {
		g.fillEmployee(m, i, g.shiftOrder())
	}
	return m
}

// shiftOrder 按时长从短到长排列班次，时长相同的班次随机排列
func (g *GreedyRepairGenerator) shiftOrder() []int {
	order := g.rng.Perm(g.rules.shiftCount())
	sort.SliceStable(order, func(a, b int) bool {
		return g.rules.durations[order[a]] < g.rules.durations[order[b]]
	})
	return order
}

type greedyState struct {
	counts            []int
	minutesWorked     int
	workStreak        int
	vacationStreak    int
	vacationBeforeRun int // 当前这段上班开始之前的休息天数
	workWeekends      int
	workedThisWeekend bool
	prevShift         int
}

func (g *GreedyRepairGenerator) fillEmployee(m *Matrix, row int, order []int) {
	emp := &g.rules.employees[row]
	st := &greedyState{
		counts:         make([]int, g.rules.shiftCount()),
		vacationStreak: unboundedStreak,
		prevShift:      Off,
	}

	for day := 0; day < g.rules.days; day++ {
		if !isWeekend(day) {
			st.workedThisWeekend = false
		}
		newWeekend := isSaturday(day) || (isSunday(day) && !st.workedThisWeekend)

		shift := g.cheapestFeasibleShift(emp, st, order)

		if shift == Off || g.mustRest(emp, st, day, newWeekend) {
			if st.workStreak > 0 && st.workStreak < emp.minConsecutive {
				g.repair(m, row, day, st)
			}

			m.Set(row, day, Off)
			st.workStreak = 0
			st.vacationStreak = addStreak(st.vacationStreak, 1)
			st.prevShift = Off
			continue
		}

		m.Set(row, day, shift)
		st.minutesWorked += g.rules.durations[shift]
		st.counts[shift]++
		st.prevShift = shift
		if st.workStreak == 0 {
			st.vacationBeforeRun = st.vacationStreak
		}
		st.workStreak++
		st.vacationStreak = 0
		if newWeekend {
			st.workWeekends++
		}
		if isWeekend(day) {
			st.workedThisWeekend = true
		}
	}
}

// cheapestFeasibleShift 返回第一个可行班次，没有时返回 Off
func (g *GreedyRepairGenerator) cheapestFeasibleShift(emp *employeeRules, st *greedyState, order []int) int {
	for _, shift := range order {
		if st.prevShift != Off && g.rules.forbidden[st.prevShift][shift] {
			continue
		}
		if st.minutesWorked+g.rules.durations[shift] > emp.maxMinutes {
			continue
		}
		if emp.maxShifts[shift] != unlimited && st.counts[shift]+1 > emp.maxShifts[shift] {
			continue
		}
		return shift
	}
	return Off
}

// mustRest 判断这一天是否必须休息
func (g *GreedyRepairGenerator) mustRest(emp *employeeRules, st *greedyState, day int, newWeekend bool) bool {
	switch {
	case st.workStreak >= emp.maxConsecutive:
		return true
	case emp.dayOff[day]:
		return true
	case st.minutesWorked >= emp.maxMinutes:
		return true
	case st.vacationStreak > 0 && st.vacationStreak < emp.minDaysOff:
		// 还在休息，且休息天数不够
		return true
	case newWeekend && st.workWeekends >= emp.maxWeekends:
		return true
	case isSunday(day) && st.workStreak == 0 && newWeekend:
		// 周六没上班，周日也不要开始上班
		return true
	case isSaturday(day) && st.workStreak > 0 && st.workStreak >= emp.minConsecutive:
		// 已经满足最小连续班次，不要上到周末
		return true
	}
	return false
}

// repair 把 day 之前刚排的 workStreak 天全部改成休息，并回退工作时长、班次计数和周末数
func (g *GreedyRepairGenerator) repair(m *Matrix, row int, day int, st *greedyState) {
	undoneSunday := -1

	for d := day - 1; d >= day-st.workStreak; d-- {
		shift := m.At(row, d)
		m.Set(row, d, Off)
		st.counts[shift]--
		st.minutesWorked -= g.rules.durations[shift]

		switch {
		case isSunday(d):
			st.workWeekends--
			undoneSunday = d
		case isSaturday(d):
			// 周六和周日都上班时只计过一次周末
			if undoneSunday != d+1 {
				st.workWeekends--
			}
		}
	}

	st.vacationStreak = addStreak(st.vacationBeforeRun, st.workStreak)
	st.workedThisWeekend = false
}

// MixedGenerator 一半种群用贪心生成（向上取整），另一半随机生成
type MixedGenerator struct {
	greedy *GreedyRepairGenerator
	random *RandomGenerator
}

func NewMixedGenerator(problem *domain.Problem, rng *rand.Rand) (*MixedGenerator, error) {
	greedy, err := NewGreedyRepairGenerator(problem, rng)
	if err != nil {
		return nil, err
	}
	return &MixedGenerator{
		greedy: greedy,
		random: &RandomGenerator{rules: greedy.rules, rng: rng},
	}, nil
}

func (g *MixedGenerator) Generate(size int) []*Matrix {
	greedySize := (size + 1) / 2
	pop := g.greedy.Generate(greedySize)
	return append(pop, g.random.Generate(size-greedySize)...)
}

// NewGenerator 根据名称创建种群生成器
func NewGenerator(kind domain.GeneratorKind, problem *domain.Problem, rng *rand.Rand) (Generator, error) {
	switch kind {
	case domain.GeneratorGreedy, "":
		return NewGreedyRepairGenerator(problem, rng)
	case domain.GeneratorRandom:
		return NewRandomGenerator(problem, rng)
	case domain.GeneratorMixed:
		return NewMixedGenerator(problem, rng)
	default:
		return nil, fmt.Errorf("不支持的种群生成方式 %q", kind)
	}
}
