package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
)

// 默认的求解参数
const (
	DefaultPopulationSize = 50
	DefaultMaxGenerations = 1000
	DefaultTargetFitness  = 5000
)

func DefaultParameters() domain.RunParameters {
	return domain.RunParameters{
		PopulationSize: DefaultPopulationSize,
		TargetFitness:  DefaultTargetFitness,
		MaxGenerations: DefaultMaxGenerations,
		Generator:      domain.GeneratorGreedy,
	}
}

func ValidateParameters(params domain.RunParameters) error {
	if params.PopulationSize < 1 {
		return fmt.Errorf("种群大小必须大于 0，当前为 %d", params.PopulationSize)
	}
	if params.MaxGenerations < 1 {
		return fmt.Errorf("最大迭代次数必须大于 0，当前为 %d", params.MaxGenerations)
	}
	switch params.Generator {
	case "", domain.GeneratorGreedy, domain.GeneratorRandom, domain.GeneratorMixed:
	default:
		return fmt.Errorf("未知的种群生成方式 %s", params.Generator)
	}
	return nil
}

type Request struct {
	Problem    *domain.Problem
	Parameters domain.RunParameters
	Config     config.SchedulerConfig
	Logger     *slog.Logger

	// OnProgress 每隔 Config.ProgressInterval 代调用一次，最后一代总会调用
	OnProgress func(scheduler.GenerationStats)
}

type Outcome struct {
	Result    *scheduler.Result
	Breakdown scheduler.Breakdown
	Schedule  [][]string
}

// Solve 按参数构造生成器、评估器和遗传算法引擎并运行
// 运行中途 ctx 被取消时同时返回已有的最佳结果和 ctx.Err()，还没有评估过任何一代时结果为 nil
func Solve(ctx context.Context, req Request) (*Outcome, error) {
	if req.Problem == nil {
		return nil, errors.New("排班问题不能为空")
	}
	if err := ValidateParameters(req.Parameters); err != nil {
		return nil, err
	}

	hardPenalty := req.Config.HardPenalty
	if hardPenalty <= 0 {
		hardPenalty = scheduler.DefaultHardPenalty
	}
	evaluator, err := scheduler.NewEvaluator(req.Problem, hardPenalty)
	if err != nil {
		return nil, err
	}

	seed := req.Parameters.Seed
	generator, err := scheduler.NewGenerator(req.Parameters.Generator, req.Problem, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	opts := scheduler.DefaultOptions()
	opts.EliteCount = req.Config.EliteCount
	opts.MutationAttempts = req.Config.MutationAttempts
	opts.MutationProbability = req.Config.MutationProbability
	opts.Workers = req.Config.Workers
	opts.Seed = seed + 1
	opts.Logger = req.Logger
	opts.OnGeneration = progressReporter(req.OnProgress, req.Config.ProgressInterval, req.Parameters.MaxGenerations)

	engine, err := scheduler.NewEngine(generator, evaluator, opts)
	if err != nil {
		return nil, err
	}

	res, err := engine.Run(ctx, req.Parameters.PopulationSize, req.Parameters.TargetFitness, req.Parameters.MaxGenerations)
	if res == nil {
		return nil, err
	}

	// ctx 被取消时 err 不为空，但仍然返回目前为止的最佳结果
	return &Outcome{
		Result:    res,
		Breakdown: evaluator.Breakdown(res.Best),
		Schedule:  res.Best.Names(req.Problem),
	}, err
}

func progressReporter(fn func(scheduler.GenerationStats), interval int, maxGenerations int) func(scheduler.GenerationStats) {
	if fn == nil {
		return nil
	}
	if interval < 1 {
		interval = 1
	}

	return func(stats scheduler.GenerationStats) {
		if stats.Generation%interval == 0 || stats.Generation == maxGenerations-1 {
			fn(stats)
		}
	}
}

// Apply 把求解结果写入运行记录
func (o *Outcome) Apply(run *domain.RosterRun) {
	fitness := o.Result.Fitness
	hard := o.Result.Score.Hard
	soft := o.Result.Score.Soft
	feasible := o.Result.Feasible

	run.Fitness = &fitness
	run.HardViolations = &hard
	run.SoftScore = &soft
	run.Feasible = &feasible
	run.Generations = o.Result.Generations
	run.Schedule = o.Schedule
}
