package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// ValidateProblem 检查排班问题是否自洽，排班引擎只接受通过检查的问题
func ValidateProblem(p *domain.Problem) error {
	if p == nil {
		return errors.New("排班问题不能为空")
	}
	if p.Days < 1 {
		return fmt.Errorf("排班天数必须大于 0，当前为 %d", p.Days)
	}
	if len(p.Shifts) == 0 {
		return errors.New("至少需要一个班次")
	}

	shiftNames := make(map[string]bool, len(p.Shifts))
	for i, shift := range p.Shifts {
		if shift.Name == "" {
			return fmt.Errorf("第 %d 个班次的名称为空", i+1)
		}
		if shiftNames[shift.Name] {
			return fmt.Errorf("班次 %s 重复", shift.Name)
		}
		if shift.Duration <= 0 {
			return fmt.Errorf("班次 %s 的时长必须大于 0", shift.Name)
		}
		shiftNames[shift.Name] = true
	}

	// 不能接续的班次必须都存在
	for _, shift := range p.Shifts {
		for _, next := range shift.NotFollowedBy {
			if !shiftNames[next] {
				return fmt.Errorf("班次 %s 的禁止接续班次 %s 不存在", shift.Name, next)
			}
		}
	}

	employeeNames := make(map[string]bool, len(p.Employees))
	for i := range p.Employees {
		e := &p.Employees[i]
		if e.Name == "" {
			return fmt.Errorf("第 %d 个员工的名称为空", i+1)
		}
		if employeeNames[e.Name] {
			return fmt.Errorf("员工 %s 重复", e.Name)
		}
		employeeNames[e.Name] = true

		if err := validateEmployee(e, p.Days, shiftNames); err != nil {
			return err
		}
	}

	for _, cover := range p.Covers {
		if !dayInRange(cover.Day, p.Days) {
			return fmt.Errorf("覆盖需求的天数 %d 超出范围 [0, %d)", cover.Day, p.Days)
		}
		if !shiftNames[cover.Shift] {
			return fmt.Errorf("第 %d 天的覆盖需求引用了不存在的班次 %s", cover.Day, cover.Shift)
		}
		if cover.Requirement < 0 || cover.UnderWeight < 0 || cover.OverWeight < 0 {
			return fmt.Errorf("第 %d 天班次 %s 的覆盖需求不能为负数", cover.Day, cover.Shift)
		}
	}

	return nil
}

func validateEmployee(e *domain.Employee, days int, shiftNames map[string]bool) error {
	bounds := []struct {
		name  string
		value int
	}{
		{"最大总时长", e.MaxTotalMinutes},
		{"最小总时长", e.MinTotalMinutes},
		{"最大连续班次", e.MaxConsecutiveShifts},
		{"最小连续班次", e.MinConsecutiveShifts},
		{"最小连续休息天数", e.MinConsecutiveDaysOff},
		{"最大周末数", e.MaxWeekends},
	}
	for _, b := range bounds {
		if b.value < 0 {
			return fmt.Errorf("员工 %s 的%s不能为负数", e.Name, b.name)
		}
	}

	if e.MinTotalMinutes > e.MaxTotalMinutes {
		return fmt.Errorf("员工 %s 的最小总时长不能大于最大总时长", e.Name)
	}
	if e.MinConsecutiveShifts > e.MaxConsecutiveShifts {
		return fmt.Errorf("员工 %s 的最小连续班次不能大于最大连续班次", e.Name)
	}

	for shift, limit := range e.MaxShifts {
		if !shiftNames[shift] {
			return fmt.Errorf("员工 %s 的班次上限引用了不存在的班次 %s", e.Name, shift)
		}
		if limit < 0 {
			return fmt.Errorf("员工 %s 的班次 %s 上限不能为负数", e.Name, shift)
		}
	}

	for _, day := range e.DaysOff {
		if !dayInRange(day, days) {
			return fmt.Errorf("员工 %s 的休息日 %d 超出范围 [0, %d)", e.Name, day, days)
		}
	}

	for _, reqs := range [][]domain.ShiftRequest{e.ShiftOnRequests, e.ShiftOffRequests} {
		for _, req := range reqs {
			if !dayInRange(req.Day, days) {
				return fmt.Errorf("员工 %s 的班次请求天数 %d 超出范围 [0, %d)", e.Name, req.Day, days)
			}
			if !shiftNames[req.Shift] {
				return fmt.Errorf("员工 %s 的班次请求引用了不存在的班次 %s", e.Name, req.Shift)
			}
			if req.Weight < 0 {
				return fmt.Errorf("员工 %s 的班次请求权重不能为负数", e.Name)
			}
		}
	}

	return nil
}

func dayInRange(day int, days int) bool {
	return day >= 0 && day < days
}

// ValidateSchedule 检查排班表的尺寸和班次名称是否与问题匹配
func ValidateSchedule(p *domain.Problem, schedule [][]string) error {
	if len(schedule) != len(p.Employees) {
		return fmt.Errorf("排班表的行数 %d 和员工数量 %d 不匹配", len(schedule), len(p.Employees))
	}

	names := make([]string, 0, len(p.Shifts))
	for _, shift := range p.Shifts {
		names = append(names, shift.Name)
	}

	for i, row := range schedule {
		if len(row) != p.Days {
			return fmt.Errorf("员工 %s 的排班天数 %d 和问题的天数 %d 不匹配", p.Employees[i].Name, len(row), p.Days)
		}
		for day, cell := range row {
			if cell != "" && !slices.Contains(names, cell) {
				return fmt.Errorf("员工 %s 第 %d 天的班次 %s 不存在", p.Employees[i].Name, day, cell)
			}
		}
	}

	return nil
}
