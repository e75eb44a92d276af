package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/solver"
)

type worker struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	ch     *amqp.Channel
	logger *slog.Logger
}

// handle 处理一条求解消息，返回之前一定会 Ack 或 Nack
func (wk *worker) handle(ctx context.Context, msg amqp.Delivery) {
	job := domain.RosterJob{}
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		wk.logger.Error("求解消息反序列化失败", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	logger := wk.logger.With("run", job.RunID)

	run, err := wk.repo.GetRosterRunByID(ctx, job.RunID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 记录已经被删除
			logger.Warn("求解记录不存在，丢弃消息")
			_ = msg.Ack(false)
		default:
			logger.Error("无法读取求解记录", "error", err)
			_ = msg.Nack(false, true)
		}
		return
	}

	if err := wk.repo.StartRosterRun(ctx, run); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			logger.Warn("求解记录不是排队状态，跳过", "status", run.Status)
			_ = msg.Ack(false)
		default:
			logger.Error("无法更新求解状态", "error", err)
			_ = msg.Nack(false, true)
		}
		return
	}

	problem, err := wk.repo.GetProblemByID(ctx, run.ProblemID)
	if err != nil {
		wk.fail(run, logger, err)
		_ = msg.Ack(false)
		return
	}

	logger.Info("开始求解", "problem", problem.Name, "parameters", run.Parameters)
	outcome, err := solver.Solve(ctx, solver.Request{
		Problem:    problem,
		Parameters: run.Parameters,
		Config:     wk.cfg.Scheduler,
		Logger:     logger,
		OnProgress: func(stats scheduler.GenerationStats) {
			wk.reportProgress(ctx, run, stats, logger)
		},
	})
	if outcome == nil {
		wk.fail(run, logger, err)
		wk.notify(run, problem, logger)
		_ = msg.Ack(false)
		return
	}
	if err != nil {
		// worker 正在关闭，保存目前为止的最佳结果
		logger.Warn("求解被中断，保存目前为止的最佳结果", "error", err, "generations", outcome.Result.Generations)
	}

	outcome.Apply(run)
	if err := wk.repo.CompleteRosterRun(context.Background(), run); err != nil {
		logger.Error("无法保存求解结果", "error", err)
		_ = msg.Nack(false, false)
		return
	}
	logger.Info("求解完成", "fitness", outcome.Result.Fitness, "feasible", outcome.Result.Feasible, "generations", outcome.Result.Generations)

	wk.notify(run, problem, logger)
	_ = msg.Ack(false)
}

// fail 把运行标记为失败，使用独立的 context，关闭 worker 时也能写入
func (wk *worker) fail(run *domain.RosterRun, logger *slog.Logger, cause error) {
	logger.Error("求解失败", "error", cause)
	if err := wk.repo.FailRosterRun(context.Background(), run, cause.Error()); err != nil {
		logger.Error("无法更新求解状态", "error", err)
	}
}

func (wk *worker) reportProgress(ctx context.Context, run *domain.RosterRun, stats scheduler.GenerationStats, logger *slog.Logger) {
	data, err := json.Marshal(domain.RosterRunProgress{
		Generation:  stats.Generation,
		BestFitness: stats.BestFitness,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logger.Error("进度序列化失败", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(wk.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()

	// 进度只用于展示，写入失败不影响求解
	expiration := time.Duration(wk.cfg.Redis.ProgressExpiration) * time.Second
	if err := wk.rdb.Set(ctx, domain.RosterRunProgressKey(run.ID), data, expiration).Err(); err != nil {
		logger.Warn("无法写入求解进度", "error", err)
	}
}

// notify 求解结束后给提交者发邮件
func (wk *worker) notify(run *domain.RosterRun, problem *domain.Problem, logger *slog.Logger) {
	if run.NotifyEmail == "" {
		return
	}

	data := domain.RosterFinishedMailData{
		ProblemName: problem.Name,
		RunID:       run.ID.String(),
		Status:      string(run.Status),
		Generations: run.Generations,
		Error:       run.Error,
	}
	if run.Status == domain.RosterRunCompleted {
		data.Fitness = *run.Fitness
		data.HardViolations = *run.HardViolations
		data.Feasible = *run.Feasible
	}

	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeRosterFinished,
		To:   run.NotifyEmail,
		Data: data,
	})
	if err != nil {
		logger.Error("邮件序列化失败", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(wk.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := wk.ch.PublishWithContext(ctx, "", wk.cfg.RabbitMQ.EmailQueue, true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		logger.Error("无法投递通知邮件", "error", err)
	}
}
