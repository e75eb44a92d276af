package scheduler

// Off 表示当天休息
const Off = -1

// Matrix: 整个排班表，matrix[员工][天] 为班次下标或 Off
// 交叉和变异总是产生新的 Matrix，已经放进种群的 Matrix 不会再被修改
type Matrix struct {
	rows       int
	cols       int
	shiftCount int
	cells      []int
}

// NewMatrix 创建一个全部休息的排班表
func NewMatrix(rows int, cols int, shiftCount int) *Matrix {
	m := &Matrix{
		rows:       rows,
		cols:       cols,
		shiftCount: shiftCount,
		cells:      make([]int, rows*cols),
	}
	for i := range m.cells {
		m.cells[i] = Off
	}
	return m
}

func (m *Matrix) Rows() int {
	return m.rows
}

func (m *Matrix) Cols() int {
	return m.cols
}

func (m *Matrix) ShiftCount() int {
	return m.shiftCount
}

func (m *Matrix) At(row int, col int) int {
	return m.cells[row*m.cols+col]
}

func (m *Matrix) Set(row int, col int, shift int) {
	m.cells[row*m.cols+col] = shift
}

// Row 返回某个员工整行排班的拷贝
func (m *Matrix) Row(row int) []int {
	out := make([]int, m.cols)
	copy(out, m.cells[row*m.cols:(row+1)*m.cols])
	return out
}

// Clone 深拷贝，拷贝与原排班表不共享存储
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{
		rows:       m.rows,
		cols:       m.cols,
		shiftCount: m.shiftCount,
		cells:      make([]int, len(m.cells)),
	}
	copy(c.cells, m.cells)
	return c
}

func (m *Matrix) SwapRows(a int, b int) {
	if a == b {
		return
	}
	for j := 0; j < m.cols; j++ {
		m.cells[a*m.cols+j], m.cells[b*m.cols+j] = m.cells[b*m.cols+j], m.cells[a*m.cols+j]
	}
}

func (m *Matrix) SwapColumns(a int, b int) {
	if a == b {
		return
	}
	for i := 0; i < m.rows; i++ {
		m.cells[i*m.cols+a], m.cells[i*m.cols+b] = m.cells[i*m.cols+b], m.cells[i*m.cols+a]
	}
}

// SwapInRow 交换同一个员工两天的排班
func (m *Matrix) SwapInRow(row int, a int, b int) {
	base := row * m.cols
	m.cells[base+a], m.cells[base+b] = m.cells[base+b], m.cells[base+a]
}

// SwapInColumn 交换同一天两个员工的排班
func (m *Matrix) SwapInColumn(col int, a int, b int) {
	m.cells[a*m.cols+col], m.cells[b*m.cols+col] = m.cells[b*m.cols+col], m.cells[a*m.cols+col]
}

// CopyColumns 把 src 中 [from, to) 这几天的排班拷贝过来，对所有员工生效
func (m *Matrix) CopyColumns(src *Matrix, from int, to int) {
	for i := 0; i < m.rows; i++ {
		copy(m.cells[i*m.cols+from:i*m.cols+to], src.cells[i*src.cols+from:i*src.cols+to])
	}
}

func (m *Matrix) Equal(other *Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}
