package scheduler

import (
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

const unlimited = -1

type coverRule struct {
	shift       int
	requirement int
	underWeight int
	overWeight  int
}

// employeeRules 是 domain.Employee 按班次下标展开后的查找表
type employeeRules struct {
	name           string
	maxShifts      []int // unlimited 表示不限
	maxMinutes     int
	minMinutes     int
	maxConsecutive int
	minConsecutive int
	minDaysOff     int
	maxWeekends    int
	dayOff         []bool
	onWeight       []int // [day]，当天休息时的惩罚
	offWeight      []int // [day*shiftCount+shift]，当天上该班次时的惩罚
}

type rules struct {
	days       int
	shiftNames []string
	durations  []int
	forbidden  [][]bool // forbidden[prev][next] 为 true 表示 next 不能排在 prev 之后一天
	employees  []employeeRules
	covers     [][]coverRule // [day]
}

func compileRules(p *domain.Problem) (*rules, error) {
	if err := utils.ValidateProblem(p); err != nil {
		return nil, err
	}

	shiftCount := len(p.Shifts)
	index := make(map[string]int, shiftCount)
	r := &rules{
		days:       p.Days,
		shiftNames: make([]string, shiftCount),
		durations:  make([]int, shiftCount),
		forbidden:  make([][]bool, shiftCount),
		employees:  make([]employeeRules, len(p.Employees)),
		covers:     make([][]coverRule, p.Days),
	}

	for i, shift := range p.Shifts {
		index[shift.Name] = i
		r.shiftNames[i] = shift.Name
		r.durations[i] = shift.Duration
	}
	for i, shift := range p.Shifts {
		r.forbidden[i] = make([]bool, shiftCount)
		for _, next := range shift.NotFollowedBy {
			r.forbidden[i][index[next]] = true
		}
	}

	for i := range p.Employees {
		e := &p.Employees[i]
		er := employeeRules{
			name:           e.Name,
			maxShifts:      make([]int, shiftCount),
			maxMinutes:     e.MaxTotalMinutes,
			minMinutes:     e.MinTotalMinutes,
			maxConsecutive: e.MaxConsecutiveShifts,
			minConsecutive: e.MinConsecutiveShifts,
			minDaysOff:     e.MinConsecutiveDaysOff,
			maxWeekends:    e.MaxWeekends,
			dayOff:         make([]bool, p.Days),
			onWeight:       make([]int, p.Days),
			offWeight:      make([]int, p.Days*shiftCount),
		}

		for s, name := range r.shiftNames {
			er.maxShifts[s] = unlimited
			if limit, ok := e.MaxShiftCount(name); ok {
				er.maxShifts[s] = limit
			}
		}
		for _, day := range e.DaysOff {
			er.dayOff[day] = true
		}
		for _, req := range e.ShiftOnRequests {
			er.onWeight[req.Day] += req.Weight
		}
		for _, req := range e.ShiftOffRequests {
			er.offWeight[req.Day*shiftCount+index[req.Shift]] += req.Weight
		}

		r.employees[i] = er
	}

	for _, cover := range p.Covers {
		r.covers[cover.Day] = append(r.covers[cover.Day], coverRule{
			shift:       index[cover.Shift],
			requirement: cover.Requirement,
			underWeight: cover.UnderWeight,
			overWeight:  cover.OverWeight,
		})
	}

	return r, nil
}

func (r *rules) shiftCount() int {
	return len(r.durations)
}

// penalty 返回员工在某天的偏好惩罚
func (e *employeeRules) penalty(day int, shift int, shiftCount int) int {
	if shift == Off {
		return e.onWeight[day]
	}
	return e.offWeight[day*shiftCount+shift]
}
