package parser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

const sampleInstance = `# 两周的小病房
days
14

shifts
# 班次名称,时长,不能接续的班次
E,480,
L,480,E
N,600,E|L

staff
A,E=10|L=10|N=3,4800,3840,5,2,2,1
B,E=10|L=10|N=0,4800,3840,5,2,2,1

days_off
A,0,7
B,13

shift_on_reqs
A,2,E,2

shift_off_reqs
B,4,L,3
B,5,L,3

section_cover
0,E,1,100,1
0,L,1,100,1
1,N,1,100,1
`

func TestParse(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleInstance))
	require.NoError(t, err)

	assert.Equal(t, 14, p.Days)
	assert.Equal(t, []domain.ShiftType{
		{Name: "E", Duration: 480},
		{Name: "L", Duration: 480, NotFollowedBy: []string{"E"}},
		{Name: "N", Duration: 600, NotFollowedBy: []string{"E", "L"}},
	}, p.Shifts)

	require.Len(t, p.Employees, 2)
	a := p.Employees[0]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, map[string]int{"E": 10, "L": 10, "N": 3}, a.MaxShifts)
	assert.Equal(t, 4800, a.MaxTotalMinutes)
	assert.Equal(t, 3840, a.MinTotalMinutes)
	assert.Equal(t, 5, a.MaxConsecutiveShifts)
	assert.Equal(t, 2, a.MinConsecutiveShifts)
	assert.Equal(t, 2, a.MinConsecutiveDaysOff)
	assert.Equal(t, 1, a.MaxWeekends)
	assert.Equal(t, []int{0, 7}, a.DaysOff)
	assert.Equal(t, []domain.ShiftRequest{{Day: 2, Shift: "E", Weight: 2}}, a.ShiftOnRequests)
	assert.Empty(t, a.ShiftOffRequests)

	b := p.Employees[1]
	assert.Equal(t, []int{13}, b.DaysOff)
	assert.Equal(t, []domain.ShiftRequest{
		{Day: 4, Shift: "L", Weight: 3},
		{Day: 5, Shift: "L", Weight: 3},
	}, b.ShiftOffRequests)

	assert.Equal(t, []domain.CoverRequirement{
		{Day: 0, Shift: "E", Requirement: 1, UnderWeight: 100, OverWeight: 1},
		{Day: 0, Shift: "L", Requirement: 1, UnderWeight: 100, OverWeight: 1},
		{Day: 1, Shift: "N", Requirement: 1, UnderWeight: 100, OverWeight: 1},
	}, p.Covers)
}

func TestParseOptionalTrailingBlocks(t *testing.T) {
	input := "days\n3\n\nshifts\nD,480,\n\nstaff\nA,,1440,0,3,1,0,1\n"

	p, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Days)
	require.Len(t, p.Employees, 1)
	assert.Nil(t, p.Employees[0].MaxShifts)
	assert.Empty(t, p.Covers)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		block string
		line  int
	}{
		{
			name:  "days is not a number",
			input: "days\nabc\n\nshifts\nD,480,\n\nstaff\nA,,1,0,1,1,0,1\n",
			block: "days",
			line:  2,
		},
		{
			name:  "staff has too few fields",
			input: "days\n3\n\nshifts\nD,480,\n\nstaff\nA,D=1,1440\n",
			block: "staff",
			line:  8,
		},
		{
			name:  "malformed shift limit",
			input: "days\n3\n\nshifts\nD,480,\n\nstaff\nA,D1,1440,0,3,1,0,1\n",
			block: "staff",
			line:  8,
		},
		{
			name:  "unknown employee in days off",
			input: "days\n3\n\nshifts\nD,480,\n\nstaff\nA,,1440,0,3,1,0,1\n\ndays_off\nZ,1\n",
			block: "days_off",
			line:  11,
		},
		{
			name:  "cover has a bad weight",
			input: "days\n3\n\nshifts\nD,480,\n\nstaff\nA,,1440,0,3,1,0,1\n\ndays_off\n\nshift_on_reqs\n\nshift_off_reqs\n\nsection_cover\n0,D,1,x,1\n",
			block: "section_cover",
			line:  17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.block, perr.Block)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestParseRejectsInvalidProblem(t *testing.T) {
	// 引用了不存在的班次
	input := "days\n3\n\nshifts\nD,480,X\n\nstaff\nA,,1440,0,3,1,0,1\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)

	var perr *ParseError
	assert.False(t, errors.As(err, &perr))
}

func TestParseRejectsMissingBlocks(t *testing.T) {
	_, err := Parse(strings.NewReader("days\n3\n"))
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleInstance))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, p))

	back, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ward.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleInstance), 0o644))

	p, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Name)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
