package domain

import "time"

type ShiftType struct {
	Name          string   `json:"name" validate:"required"`
	Duration      int      `json:"duration" validate:"gt=0"` // 单位为分钟
	NotFollowedBy []string `json:"notFollowedBy"`            // 第二天不能接着排的班次
}

type ShiftRequest struct {
	Day    int    `json:"day" validate:"min=0"`
	Shift  string `json:"shift" validate:"required"`
	Weight int    `json:"weight" validate:"min=0"`
}

type Employee struct {
	Name                  string         `json:"name" validate:"required"`
	MaxShifts             map[string]int `json:"maxShifts"` // 没有出现的班次表示不限次数
	MaxTotalMinutes       int            `json:"maxTotalMinutes" validate:"min=0"`
	MinTotalMinutes       int            `json:"minTotalMinutes" validate:"min=0"`
	MaxConsecutiveShifts  int            `json:"maxConsecutiveShifts" validate:"min=0"`
	MinConsecutiveShifts  int            `json:"minConsecutiveShifts" validate:"min=0"`
	MinConsecutiveDaysOff int            `json:"minConsecutiveDaysOff" validate:"min=0"`
	MaxWeekends           int            `json:"maxWeekends" validate:"min=0"`
	DaysOff               []int          `json:"daysOff"`
	ShiftOnRequests       []ShiftRequest `json:"shiftOnRequests" validate:"dive"`
	ShiftOffRequests      []ShiftRequest `json:"shiftOffRequests" validate:"dive"`
}

// MaxShiftCount 返回某个班次的最大次数，ok 为 false 表示不限
func (e *Employee) MaxShiftCount(shift string) (limit int, ok bool) {
	limit, ok = e.MaxShifts[shift]
	return limit, ok
}

type CoverRequirement struct {
	Day         int    `json:"day" validate:"min=0"`
	Shift       string `json:"shift" validate:"required"`
	Requirement int    `json:"requirement" validate:"min=0"`
	UnderWeight int    `json:"underWeight" validate:"min=0"`
	OverWeight  int    `json:"overWeight" validate:"min=0"`
}

type Problem struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Days      int                `json:"days" validate:"min=1"`
	Shifts    []ShiftType        `json:"shifts" validate:"required,dive"`
	Employees []Employee         `json:"employees" validate:"dive"`
	Covers    []CoverRequirement `json:"covers" validate:"dive"`
	CreatedAt time.Time          `json:"createdAt"`
	Version   int32              `json:"-"`
}

// ProblemMeta 列表接口只返回元数据
type ProblemMeta struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Days          int       `json:"days"`
	EmployeeCount int       `json:"employeeCount"`
	ShiftCount    int       `json:"shiftCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
