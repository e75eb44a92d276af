package scheduler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

// Names 把排班表转换成班次名称，休息为空字符串
func (m *Matrix) Names(problem *domain.Problem) [][]string {
	names := make([][]string, m.rows)
	for i := 0; i < m.rows; i++ {
		names[i] = make([]string, m.cols)
		for day := 0; day < m.cols; day++ {
			if shift := m.At(i, day); shift != Off {
				names[i][day] = problem.Shifts[shift].Name
			}
		}
	}
	return names
}

// MatrixFromNames 把班次名称形式的排班表转换成 Matrix
func MatrixFromNames(problem *domain.Problem, schedule [][]string) (*Matrix, error) {
	if err := utils.ValidateSchedule(problem, schedule); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(problem.Shifts))
	for i, shift := range problem.Shifts {
		index[shift.Name] = i
	}

	m := NewMatrix(len(problem.Employees), problem.Days, len(problem.Shifts))
	for i, row := range schedule {
		for day, name := range row {
			if name != "" {
				m.Set(i, day, index[name])
			}
		}
	}
	return m, nil
}

// WriteSchedule 输出排班结果
// 第一行为 "<适应度>, <是否可行>"，之后每个员工一行，以制表符分隔员工名称和每天的班次
func WriteSchedule(w io.Writer, problem *domain.Problem, m *Matrix, fitness float64, feasible bool) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%v, %v\n", fitness, feasible); err != nil {
		return err
	}
	for i, row := range m.Names(problem) {
		line := problem.Employees[i].Name + "\t" + strings.Join(row, "\t")
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}

	return bw.Flush()
}
