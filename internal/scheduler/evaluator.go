package scheduler

import (
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// DefaultHardPenalty 每违反一条硬约束加上的惩罚，需要大于所有软约束惩罚之和的常见取值
const DefaultHardPenalty = 2500.0

// Score: 排班表的评估结果
type Score struct {
	Hard int `json:"hard"` // 违反硬约束的次数
	Soft int `json:"soft"` // 软约束惩罚
}

func (s Score) Fitness(hardPenalty float64) float64 {
	return float64(s.Soft) + hardPenalty*float64(s.Hard)
}

// EmployeeScore 单个员工的评估结果
type EmployeeScore struct {
	Employee string `json:"employee"`
	Hard     int    `json:"hard"`
	Soft     int    `json:"soft"`
}

// Breakdown 按员工拆分的评估结果，CoverPenalty 为覆盖需求带来的软约束惩罚
type Breakdown struct {
	Employees    []EmployeeScore `json:"employees"`
	CoverPenalty int             `json:"coverPenalty"`
}

// Evaluator 对排班表打分，不会修改传入的排班表，可以并发使用
type Evaluator struct {
	rules       *rules
	hardPenalty float64
}

func NewEvaluator(problem *domain.Problem, hardPenalty float64) (*Evaluator, error) {
	r, err := compileRules(problem)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		rules:       r,
		hardPenalty: hardPenalty,
	}, nil
}

func (e *Evaluator) HardPenalty() float64 {
	return e.hardPenalty
}

// Evaluate 计算排班表的适应度，越小越好
// fitness = soft + hardPenalty * hard
func (e *Evaluator) Evaluate(m *Matrix) float64 {
	return e.Score(m).Fitness(e.hardPenalty)
}

func (e *Evaluator) IsFeasible(m *Matrix) bool {
	return e.Score(m).Hard == 0
}

// Score 计算硬约束违反次数和软约束惩罚，m 的尺寸必须和问题一致
func (e *Evaluator) Score(m *Matrix) Score {
	var score Score

	for i := range e.rules.employees {
		hard, soft := e.scoreEmployee(m, i)
		score.Hard += hard
		score.Soft += soft
	}
	score.Soft += e.scoreCovers(m)

	return score
}

func (e *Evaluator) Breakdown(m *Matrix) Breakdown {
	b := Breakdown{
		Employees: make([]EmployeeScore, len(e.rules.employees)),
	}
	for i := range e.rules.employees {
		hard, soft := e.scoreEmployee(m, i)
		b.Employees[i] = EmployeeScore{
			Employee: e.rules.employees[i].name,
			Hard:     hard,
			Soft:     soft,
		}
	}
	b.CoverPenalty = e.scoreCovers(m)
	return b
}

func (e *Evaluator) scoreEmployee(m *Matrix, row int) (hard int, soft int) {
	emp := &e.rules.employees[row]
	shiftCount := e.rules.shiftCount()

	counts := make([]int, shiftCount)
	minutesWorked := 0
	workStreak := 0
	vacationStreak := 0
	workWeekends := 0
	workedThisWeekend := false
	prevShift := Off

	for day := 0; day < e.rules.days; day++ {
		shift := m.At(row, day)

		if !isWeekend(day) {
			workedThisWeekend = false
		}

		if shift != Off {
			if prevShift != Off && e.rules.forbidden[prevShift][shift] {
				hard++
			}

			counts[shift]++
			minutesWorked += e.rules.durations[shift]

			// 休息刚刚结束，检查休息天数是否太短
			// 从第 0 天就开始的休息不检查，因为不知道排班周期之前休息了多久
			if vacationStreak > 0 {
				if day-vacationStreak > 0 && vacationStreak < emp.minDaysOff {
					hard++
				}
				vacationStreak = 0
			}

			workStreak++
			if workStreak > emp.maxConsecutive {
				hard++
			}

			// 同一个周末只算一次
			if isSaturday(day) || (isSunday(day) && !workedThisWeekend) {
				workWeekends++
				workedThisWeekend = true
			}

			if emp.dayOff[day] {
				hard++
			}
		} else {
			// 连续上班刚刚结束，检查是否太短
			// 从第 0 天开始的和在最后一天结束的都不检查，它们在排班周期外的长度未知
			if workStreak > 0 && day-workStreak > 0 && day != e.rules.days-1 && workStreak < emp.minConsecutive {
				hard++
			}
			workStreak = 0
			vacationStreak++
		}

		soft += emp.penalty(day, shift, shiftCount)
		prevShift = shift
	}

	for s, count := range counts {
		if emp.maxShifts[s] != unlimited && count > emp.maxShifts[s] {
			hard++
		}
	}

	if minutesWorked < emp.minMinutes || minutesWorked > emp.maxMinutes {
		hard++
	}

	if workWeekends > emp.maxWeekends {
		hard++
	}

	return hard, soft
}

func (e *Evaluator) scoreCovers(m *Matrix) int {
	penalty := 0
	counts := make([]int, e.rules.shiftCount())

	for day, covers := range e.rules.covers {
		if len(covers) == 0 {
			continue
		}

		clear(counts)
		for i := 0; i < m.Rows(); i++ {
			if shift := m.At(i, day); shift != Off {
				counts[shift]++
			}
		}

		// 人数不足和人数过多是两个独立的判断
		for _, cover := range covers {
			if counts[cover.shift] < cover.requirement {
				penalty += cover.underWeight
			}
			if counts[cover.shift] > cover.requirement {
				penalty += cover.overWeight
			}
		}
	}

	return penalty
}
