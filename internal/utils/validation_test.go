package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func validProblem() *domain.Problem {
	return &domain.Problem{
		Name: "ward",
		Days: 7,
		Shifts: []domain.ShiftType{
			{Name: "D", Duration: 480},
			{Name: "N", Duration: 600, NotFollowedBy: []string{"D"}},
		},
		Employees: []domain.Employee{{
			Name:                 "A",
			MaxShifts:            map[string]int{"N": 2},
			MaxTotalMinutes:      2400,
			MinTotalMinutes:      960,
			MaxConsecutiveShifts: 5,
			MinConsecutiveShifts: 2,
			MaxWeekends:          1,
			DaysOff:              []int{6},
			ShiftOnRequests:      []domain.ShiftRequest{{Day: 1, Shift: "D", Weight: 2}},
		}},
		Covers: []domain.CoverRequirement{{Day: 0, Shift: "D", Requirement: 1, UnderWeight: 100, OverWeight: 1}},
	}
}

func TestValidateProblem(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *domain.Problem)
		wantErr bool
	}{
		{"valid", func(p *domain.Problem) {}, false},
		{"zero days", func(p *domain.Problem) { p.Days = 0 }, true},
		{"no shifts", func(p *domain.Problem) { p.Shifts = nil }, true},
		{"duplicate shift", func(p *domain.Problem) { p.Shifts[1].Name = "D" }, true},
		{"zero duration", func(p *domain.Problem) { p.Shifts[0].Duration = 0 }, true},
		{"unknown follow-up shift", func(p *domain.Problem) { p.Shifts[1].NotFollowedBy = []string{"X"} }, true},
		{"duplicate employee", func(p *domain.Problem) { p.Employees = append(p.Employees, p.Employees[0]) }, true},
		{"min minutes above max", func(p *domain.Problem) { p.Employees[0].MinTotalMinutes = 3000 }, true},
		{"min consecutive above max", func(p *domain.Problem) { p.Employees[0].MinConsecutiveShifts = 6 }, true},
		{"negative weekends", func(p *domain.Problem) { p.Employees[0].MaxWeekends = -1 }, true},
		{"unknown shift limit", func(p *domain.Problem) { p.Employees[0].MaxShifts["X"] = 1 }, true},
		{"day off out of range", func(p *domain.Problem) { p.Employees[0].DaysOff = []int{7} }, true},
		{"request on unknown shift", func(p *domain.Problem) { p.Employees[0].ShiftOnRequests[0].Shift = "X" }, true},
		{"negative request weight", func(p *domain.Problem) { p.Employees[0].ShiftOnRequests[0].Weight = -1 }, true},
		{"cover out of range", func(p *domain.Problem) { p.Covers[0].Day = -1 }, true},
		{"negative cover weight", func(p *domain.Problem) { p.Covers[0].OverWeight = -1 }, true},
		{"no employees", func(p *domain.Problem) { p.Employees = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProblem()
			tt.modify(p)

			err := ValidateProblem(p)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, ValidateProblem(nil))
}

func TestValidateSchedule(t *testing.T) {
	p := validProblem()

	assert.NoError(t, ValidateSchedule(p, [][]string{{"D", "D", "", "N", "", "", ""}}))
	assert.Error(t, ValidateSchedule(p, [][]string{}))
	assert.Error(t, ValidateSchedule(p, [][]string{{"D"}}))
	assert.Error(t, ValidateSchedule(p, [][]string{{"D", "D", "", "X", "", "", ""}}))
}
