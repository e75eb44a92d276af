package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPopulation  = errors.New("种群大小必须大于 0")
	ErrInvalidGenerations = errors.New("最大迭代次数必须大于 0")
)

// 遗传算法参数
type Options struct {
	EliteCount          int     // 精英数量
	MutationAttempts    int     // 每个子代的变异尝试次数
	MutationProbability float64 // 每次尝试的变异概率
	Workers             int     // 并行评估和繁殖的协程数，小于等于 1 时串行执行
	Seed                int64   // 选择、交叉和变异使用的随机种子

	// OnGeneration 每一代评估完成后调用，用于汇报进度
	OnGeneration func(GenerationStats)
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		EliteCount:          5,
		MutationAttempts:    2,
		MutationProbability: 0.1,
		Workers:             1,
		Seed:                time.Now().UnixNano(),
	}
}

type GenerationStats struct {
	Generation     int
	GenerationBest float64 // 本代最佳适应度
	BestFitness    float64 // 迄今为止的最佳适应度
}

type Result struct {
	Best        *Matrix
	Fitness     float64
	Score       Score
	Feasible    bool
	Generations int // 实际评估过的代数
}

type Engine struct {
	generator Generator
	evaluator *Evaluator
	options   Options
	logger    *slog.Logger
}

func NewEngine(generator Generator, evaluator *Evaluator, options Options) (*Engine, error) {
	if generator == nil || evaluator == nil {
		return nil, errors.New("种群生成器和评估器不能为空")
	}
	if options.EliteCount < 0 {
		return nil, fmt.Errorf("精英数量不能为负数，当前为 %d", options.EliteCount)
	}
	if options.MutationAttempts < 0 {
		return nil, fmt.Errorf("变异次数不能为负数，当前为 %d", options.MutationAttempts)
	}
	if options.MutationProbability < 0 || options.MutationProbability > 1 {
		return nil, fmt.Errorf("变异概率必须在 [0, 1] 之间，当前为 %v", options.MutationProbability)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		generator: generator,
		evaluator: evaluator,
		options:   options,
		logger:    logger,
	}, nil
}

// Run 迭代直到最佳适应度不超过 targetFitness 或者达到 maxGenerations
// ctx 被取消时返回目前为止的最佳结果和 ctx.Err()
func (e *Engine) Run(ctx context.Context, populationSize int, targetFitness float64, maxGenerations int) (*Result, error) {
	if populationSize < 1 {
		return nil, ErrInvalidPopulation
	}
	if maxGenerations < 1 {
		return nil, ErrInvalidGenerations
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(e.options.Seed))

	// 生成初始种群
	pop := e.generator.Generate(populationSize)
	if len(pop) != populationSize {
		return nil, fmt.Errorf("种群生成器返回了 %d 个个体，期望 %d 个", len(pop), populationSize)
	}

	var best *individual
	generations := 0

	for gen := 0; gen < maxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return e.result(best, generations), err
		}

		evaluated, err := e.evaluate(ctx, pop)
		if err != nil {
			return e.result(best, generations), err
		}
		generations++

		sort.SliceStable(evaluated, func(i, j int) bool {
			return evaluated[i].fitness < evaluated[j].fitness
		})

		// 找到本代最佳样本，个体不会被修改，所以不需要深拷贝
		if best == nil || evaluated[0].fitness < best.fitness {
			best = &evaluated[0]
		}

		e.logger.Debug("完成一代迭代", "generation", gen, "generationBest", evaluated[0].fitness, "best", best.fitness)
		if e.options.OnGeneration != nil {
			e.options.OnGeneration(GenerationStats{
				Generation:     gen,
				GenerationBest: evaluated[0].fitness,
				BestFitness:    best.fitness,
			})
		}

		if best.fitness <= targetFitness || gen == maxGenerations-1 {
			break
		}

		pop, err = e.reproduce(ctx, rng, evaluated)
		if err != nil {
			return e.result(best, generations), err
		}
	}

	res := e.result(best, generations)
	e.logger.Info("遗传算法结束", "generations", generations, "fitness", res.Fitness, "feasible", res.Feasible, "duration", time.Since(start))

	return res, nil
}

func (e *Engine) result(best *individual, generations int) *Result {
	if best == nil {
		return nil
	}
	return &Result{
		Best:        best.matrix,
		Fitness:     best.fitness,
		Score:       best.score,
		Feasible:    best.score.Hard == 0,
		Generations: generations,
	}
}

func (e *Engine) evaluate(ctx context.Context, pop []*Matrix) ([]individual, error) {
	evaluated := make([]individual, len(pop))

	err := e.forEach(ctx, len(pop), func(i int) error {
		score := e.evaluator.Score(pop[i])
		evaluated[i] = individual{
			matrix:  pop[i],
			score:   score,
			fitness: score.Fitness(e.evaluator.HardPenalty()),
		}
		return nil
	})

	return evaluated, err
}

// 繁殖
// evaluated 必须已经按适应度从小到大排好序
func (e *Engine) reproduce(ctx context.Context, rng *rand.Rand, evaluated []individual) ([]*Matrix, error) {
	size := len(evaluated)
	eliteCount := min(e.options.EliteCount, size)
	next := make([]*Matrix, size)

	// 保留精英
	for i := 0; i < eliteCount; i++ {
		next[i] = evaluated[i].matrix
	}

	// 每个子代使用独立的随机数生成器，结果只取决于种子而与并行度无关
	seeds := make([]int64, size-eliteCount)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	wheel := newRoulette(evaluated)
	err := e.forEach(ctx, len(seeds), func(i int) error {
		childRng := rand.New(rand.NewSource(seeds[i]))

		// 选择两个父本，可以是同一个
		parentA := wheel.pick(childRng)
		parentB := wheel.pick(childRng)

		child, err := parentA.Cross(parentB, childRng)
		if err != nil {
			return err
		}
		next[eliteCount+i] = child.Mutate(childRng, e.options.MutationAttempts, e.options.MutationProbability)
		return nil
	})

	return next, err
}

func (e *Engine) forEach(ctx context.Context, n int, fn func(i int) error) error {
	if e.options.Workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.options.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
