package parser

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// Format 把排班问题写成 Parse 能读取的文本格式
func Format(w io.Writer, p *domain.Problem) error {
	bw := bufio.NewWriter(w)

	if p.Name != "" {
		fmt.Fprintf(bw, "# %s\n", p.Name)
	}

	fmt.Fprintf(bw, "%s\n%d\n\n", blockDays, p.Days)

	fmt.Fprintln(bw, blockShifts)
	for _, shift := range p.Shifts {
		fmt.Fprintf(bw, "%s,%d,%s\n", shift.Name, shift.Duration, strings.Join(shift.NotFollowedBy, "|"))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, blockStaff)
	for _, e := range p.Employees {
		fmt.Fprintf(bw, "%s,%s,%d,%d,%d,%d,%d,%d\n",
			e.Name, formatMaxShifts(e.MaxShifts),
			e.MaxTotalMinutes, e.MinTotalMinutes,
			e.MaxConsecutiveShifts, e.MinConsecutiveShifts,
			e.MinConsecutiveDaysOff, e.MaxWeekends,
		)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, blockDaysOff)
	for _, e := range p.Employees {
		if len(e.DaysOff) == 0 {
			continue
		}
		days := make([]string, 0, len(e.DaysOff))
		for _, day := range e.DaysOff {
			days = append(days, strconv.Itoa(day))
		}
		fmt.Fprintf(bw, "%s,%s\n", e.Name, strings.Join(days, ","))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, blockShiftOnReqs)
	for _, e := range p.Employees {
		for _, req := range e.ShiftOnRequests {
			fmt.Fprintf(bw, "%s,%d,%s,%d\n", e.Name, req.Day, req.Shift, req.Weight)
		}
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, blockShiftOffReqs)
	for _, e := range p.Employees {
		for _, req := range e.ShiftOffRequests {
			fmt.Fprintf(bw, "%s,%d,%s,%d\n", e.Name, req.Day, req.Shift, req.Weight)
		}
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, blockSectionCover)
	for _, c := range p.Covers {
		fmt.Fprintf(bw, "%d,%s,%d,%d,%d\n", c.Day, c.Shift, c.Requirement, c.UnderWeight, c.OverWeight)
	}

	return bw.Flush()
}

// 按班次名称排序，保证输出稳定
func formatMaxShifts(limits map[string]int) string {
	shifts := make([]string, 0, len(limits))
	for shift := range limits {
		shifts = append(shifts, shift)
	}
	slices.Sort(shifts)

	pairs := make([]string, 0, len(shifts))
	for _, shift := range shifts {
		pairs = append(pairs, fmt.Sprintf("%s=%d", shift, limits[shift]))
	}
	return strings.Join(pairs, "|")
}
