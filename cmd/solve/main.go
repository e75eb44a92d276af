package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/parser"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/solver"
)

func main() {
	params := solver.DefaultParameters()

	var instance string
	var out string
	var generator string
	var workers int
	var printEvery int

	flag.StringVar(&instance, "instance", "instance.txt", "排班问题文件")
	flag.StringVar(&out, "out", "res-last.txt", "排班结果的输出文件")
	flag.IntVar(&params.PopulationSize, "pop", params.PopulationSize, "种群大小")
	flag.Float64Var(&params.TargetFitness, "target", params.TargetFitness, "适应度不超过该值时停止")
	flag.IntVar(&params.MaxGenerations, "max-gen", params.MaxGenerations, "最大迭代次数")
	flag.StringVar(&generator, "generator", string(params.Generator), "初始种群生成方式 (greedy, random, mixed)")
	flag.Int64Var(&params.Seed, "seed", time.Now().UnixNano(), "随机种子")
	flag.IntVar(&workers, "workers", 0, "并行评估的协程数，0 表示使用 SCHEDULER_WORKERS")
	flag.IntVar(&printEvery, "print-every", 0, "每隔多少代输出一次进度，0 表示使用 SCHEDULER_PROGRESS_INTERVAL")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger, instance, out, generator, workers, printEvery, params); err != nil {
		logger.Error("求解失败", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, instance string, out string, generator string, workers int, printEvery int, params domain.RunParameters) error {
	cfg, err := config.LoadSchedulerConfig()
	if err != nil {
		return fmt.Errorf("无法加载配置: %w", err)
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if printEvery > 0 {
		cfg.ProgressInterval = printEvery
	}
	params.Generator = domain.GeneratorKind(generator)

	problem, err := parser.ParseFile(instance)
	if err != nil {
		return err
	}
	logger.Info("已读取排班问题", "instance", instance, "days", problem.Days, "employees", len(problem.Employees), "shifts", len(problem.Shifts))

	// CTRL+C 时在当前这一代结束后停止
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	outcome, err := solver.Solve(ctx, solver.Request{
		Problem:    problem,
		Parameters: params,
		Config:     *cfg,
		Logger:     logger,
		OnProgress: func(stats scheduler.GenerationStats) {
			logger.Info("迭代进度", "generation", stats.Generation, "generationBest", stats.GenerationBest, "best", stats.BestFitness)
		},
	})
	if outcome == nil {
		return err
	}
	if err != nil {
		logger.Warn("求解被中断，输出目前为止的最佳结果", "error", err)
	}

	res := outcome.Result
	logger.Info("求解结束",
		"fitness", res.Fitness,
		"feasible", res.Feasible,
		"hard", res.Score.Hard,
		"soft", res.Score.Soft,
		"generations", res.Generations,
		"seed", params.Seed,
		"duration", time.Since(start),
	)
	for _, e := range outcome.Breakdown.Employees {
		if e.Hard > 0 || e.Soft > 0 {
			logger.Info("员工惩罚", "employee", e.Employee, "hard", e.Hard, "soft", e.Soft)
		}
	}
	logger.Info("覆盖需求惩罚", "penalty", outcome.Breakdown.CoverPenalty)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := scheduler.WriteSchedule(f, problem, res.Best, res.Fitness, res.Feasible); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("已写入排班结果", "path", out)
	return nil
}
