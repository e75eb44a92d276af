package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

// 文本格式由七个块组成，每个块以一行标题开头，之后是数据行，以空行或文件结尾结束
// 以 # 开头的行是注释
const (
	blockDays         = "days"
	blockShifts       = "shifts"
	blockStaff        = "staff"
	blockDaysOff      = "days_off"
	blockShiftOnReqs  = "shift_on_reqs"
	blockShiftOffReqs = "shift_off_reqs"
	blockSectionCover = "section_cover"
)

var blockOrder = []string{
	blockDays,
	blockShifts,
	blockStaff,
	blockDaysOff,
	blockShiftOnReqs,
	blockShiftOffReqs,
	blockSectionCover,
}

// ParseError 指出出错的块和行号
type ParseError struct {
	Block string
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("第 %d 行（%s 块）：%v", e.Line, e.Block, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type line struct {
	number int
	text   string
}

// ParseFile 读取并解析一个排班问题文件，问题名称为文件名
func ParseFile(path string) (*domain.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}

	return p, nil
}

// Parse 解析文本格式的排班问题，返回的问题已经通过了校验
func Parse(r io.Reader) (*domain.Problem, error) {
	blocks, err := readBlocks(r)
	if err != nil {
		return nil, err
	}

	p := &domain.Problem{}
	employeeIndex := make(map[string]int)

	for i, name := range blockOrder {
		var data []line
		if i < len(blocks) {
			data = blocks[i]
		}

		for _, l := range data {
			if err := parseLine(p, employeeIndex, name, l.text); err != nil {
				return nil, &ParseError{Block: name, Line: l.number, Err: err}
			}
		}
	}

	if err := utils.ValidateProblem(p); err != nil {
		return nil, err
	}

	return p, nil
}

// readBlocks 按块切分输入，每个块只保留数据行
func readBlocks(r io.Reader) ([][]line, error) {
	var (
		blocks  [][]line
		current []line
		inBlock bool
		number  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(text, "#") {
			continue
		}

		if !inBlock {
			// 块与块之间多余的空行直接跳过，第一个非空行是标题
			if text == "" {
				continue
			}
			inBlock = true
			current = []line{}
			continue
		}

		if text == "" {
			blocks = append(blocks, current)
			inBlock = false
			continue
		}

		current = append(current, line{number: number, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		blocks = append(blocks, current)
	}

	if len(blocks) > len(blockOrder) {
		return nil, fmt.Errorf("最多只能有 %d 个块，实际有 %d 个", len(blockOrder), len(blocks))
	}
	if len(blocks) < 3 {
		return nil, errors.New("至少需要 days、shifts 和 staff 三个块")
	}

	return blocks, nil
}

func parseLine(p *domain.Problem, employeeIndex map[string]int, block string, text string) error {
	fields := strings.Split(text, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	switch block {
	case blockDays:
		if p.Days != 0 || len(fields) != 1 {
			return errors.New("days 块只能有一行且只有一个字段")
		}
		days, err := atoi(fields[0], "天数")
		if err != nil {
			return err
		}
		p.Days = days

	case blockShifts:
		shift, err := parseShift(fields)
		if err != nil {
			return err
		}
		p.Shifts = append(p.Shifts, shift)

	case blockStaff:
		employee, err := parseEmployee(fields)
		if err != nil {
			return err
		}
		employeeIndex[employee.Name] = len(p.Employees)
		p.Employees = append(p.Employees, employee)

	case blockDaysOff:
		employee, err := lookupEmployee(p, employeeIndex, fields[0])
		if err != nil {
			return err
		}
		for _, field := range fields[1:] {
			if field == "" {
				continue
			}
			day, err := atoi(field, "休息日")
			if err != nil {
				return err
			}
			employee.DaysOff = append(employee.DaysOff, day)
		}

	case blockShiftOnReqs, blockShiftOffReqs:
		if len(fields) != 4 {
			return fmt.Errorf("班次请求需要 4 个字段，实际有 %d 个", len(fields))
		}
		employee, err := lookupEmployee(p, employeeIndex, fields[0])
		if err != nil {
			return err
		}
		req, err := parseRequest(fields[1:])
		if err != nil {
			return err
		}
		if block == blockShiftOnReqs {
			employee.ShiftOnRequests = append(employee.ShiftOnRequests, req)
		} else {
			employee.ShiftOffRequests = append(employee.ShiftOffRequests, req)
		}

	case blockSectionCover:
		cover, err := parseCover(fields)
		if err != nil {
			return err
		}
		p.Covers = append(p.Covers, cover)
	}

	return nil
}

func parseShift(fields []string) (domain.ShiftType, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return domain.ShiftType{}, fmt.Errorf("班次需要 2 到 3 个字段，实际有 %d 个", len(fields))
	}

	duration, err := atoi(fields[1], "班次时长")
	if err != nil {
		return domain.ShiftType{}, err
	}

	shift := domain.ShiftType{Name: fields[0], Duration: duration}
	if len(fields) == 3 {
		shift.NotFollowedBy = splitList(fields[2])
	}

	return shift, nil
}

func parseEmployee(fields []string) (domain.Employee, error) {
	if len(fields) != 8 {
		return domain.Employee{}, fmt.Errorf("员工需要 8 个字段，实际有 %d 个", len(fields))
	}

	employee := domain.Employee{Name: fields[0]}

	for _, pair := range splitList(fields[1]) {
		shift, limit, ok := strings.Cut(pair, "=")
		if !ok {
			return domain.Employee{}, fmt.Errorf("班次上限 %q 的格式应为 班次=上限", pair)
		}
		n, err := atoi(limit, "班次上限")
		if err != nil {
			return domain.Employee{}, err
		}
		if employee.MaxShifts == nil {
			employee.MaxShifts = make(map[string]int)
		}
		employee.MaxShifts[strings.TrimSpace(shift)] = n
	}

	targets := []struct {
		dst  *int
		name string
	}{
		{&employee.MaxTotalMinutes, "最大总时长"},
		{&employee.MinTotalMinutes, "最小总时长"},
		{&employee.MaxConsecutiveShifts, "最大连续班次"},
		{&employee.MinConsecutiveShifts, "最小连续班次"},
		{&employee.MinConsecutiveDaysOff, "最小连续休息天数"},
		{&employee.MaxWeekends, "最大周末数"},
	}
	for i, target := range targets {
		n, err := atoi(fields[i+2], target.name)
		if err != nil {
			return domain.Employee{}, err
		}
		*target.dst = n
	}

	return employee, nil
}

func parseRequest(fields []string) (domain.ShiftRequest, error) {
	day, err := atoi(fields[0], "天数")
	if err != nil {
		return domain.ShiftRequest{}, err
	}
	weight, err := atoi(fields[2], "权重")
	if err != nil {
		return domain.ShiftRequest{}, err
	}

	return domain.ShiftRequest{Day: day, Shift: fields[1], Weight: weight}, nil
}

func parseCover(fields []string) (domain.CoverRequirement, error) {
	if len(fields) != 5 {
		return domain.CoverRequirement{}, fmt.Errorf("覆盖需求需要 5 个字段，实际有 %d 个", len(fields))
	}

	cover := domain.CoverRequirement{Shift: fields[1]}
	targets := []struct {
		dst   *int
		field string
		name  string
	}{
		{&cover.Day, fields[0], "天数"},
		{&cover.Requirement, fields[2], "需求人数"},
		{&cover.UnderWeight, fields[3], "不足权重"},
		{&cover.OverWeight, fields[4], "超出权重"},
	}
	for _, target := range targets {
		n, err := atoi(target.field, target.name)
		if err != nil {
			return domain.CoverRequirement{}, err
		}
		*target.dst = n
	}

	return cover, nil
}

func lookupEmployee(p *domain.Problem, employeeIndex map[string]int, name string) (*domain.Employee, error) {
	i, ok := employeeIndex[name]
	if !ok {
		return nil, fmt.Errorf("员工 %s 不存在", name)
	}
	return &p.Employees[i], nil
}

// splitList 以 | 分隔，忽略空项
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, "|") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func atoi(s string, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q 不是整数", name, s)
	}
	return n, nil
}
