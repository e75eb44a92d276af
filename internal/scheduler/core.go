package scheduler

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

var ErrDimensionMismatch = errors.New("两个排班表的尺寸不一致")

// 轮盘赌时适应度的下限，防止 1/fitness 除零
const minSelectableFitness = 1e-9

// 变异
// 先拷贝，再进行 attempts 次尝试，每次以 probability 的概率随机执行一种变异
func (m *Matrix) Mutate(rng *rand.Rand, attempts int, probability float64) *Matrix {
	mutant := m.Clone()
	if mutant.rows == 0 || mutant.cols == 0 {
		return mutant
	}

	for i := 0; i < attempts; i++ {
		if rng.Float64() >= probability {
			continue
		}

		switch rng.Intn(4) {
		case 0:
			// 随机让某人某天休息
			mutant.Set(rng.Intn(mutant.rows), rng.Intn(mutant.cols), Off)
		case 1:
			// 随机给某人某天排一个班次
			if mutant.shiftCount > 0 {
				mutant.Set(rng.Intn(mutant.rows), rng.Intn(mutant.cols), rng.Intn(mutant.shiftCount))
			}
		case 2:
			// 同一个员工交换两天
			mutant.SwapInRow(rng.Intn(mutant.rows), rng.Intn(mutant.cols), rng.Intn(mutant.cols))
		default:
			// 同一天交换两个员工
			mutant.SwapInColumn(rng.Intn(mutant.cols), rng.Intn(mutant.rows), rng.Intn(mutant.rows))
		}
	}

	return mutant
}

// 单点交叉
// 交叉点总是落在某一周的开头，交叉点之前的天数来自 m，之后来自 other，对所有员工都一样
func (m *Matrix) Cross(other *Matrix, rng *rand.Rand) (*Matrix, error) {
	if m.rows != other.rows || m.cols != other.cols {
		return nil, ErrDimensionMismatch
	}

	child := other.Clone()
	if m.cols == 0 {
		return child, nil
	}

	boundary := rng.Intn(m.cols) / daysPerWeek * daysPerWeek
	child.CopyColumns(m, 0, boundary)

	return child, nil
}

type individual struct {
	matrix  *Matrix
	score   Score
	fitness float64
}

// roulette 使用 1/fitness 作为权重的轮盘赌
type roulette struct {
	individuals []individual
	cumulative  []float64
	total       float64
}

func newRoulette(individuals []individual) *roulette {
	r := &roulette{
		individuals: individuals,
		cumulative:  make([]float64, len(individuals)),
	}
	for i, ind := range individuals {
		r.total += 1.0 / math.Max(ind.fitness, minSelectableFitness)
		r.cumulative[i] = r.total
	}
	return r
}

// 使用轮盘赌来进行选择
func (r *roulette) pick(rng *rand.Rand) *Matrix {
	point := rng.Float64() * r.total
	i := sort.Search(len(r.cumulative), func(i int) bool {
		return r.cumulative[i] > point
	})
	if i == len(r.cumulative) {
		// 浮点误差导致没有命中时取最后一个
		i = len(r.cumulative) - 1
	}
	return r.individuals[i].matrix
}
