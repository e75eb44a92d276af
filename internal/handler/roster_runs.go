package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/solver"
)

// CreateRosterRun 创建一次求解并投递到 roster_queue，由 worker 异步执行
func (h *Handler) CreateRosterRun(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ProblemCtx).(*domain.Problem)

	var req struct {
		PopulationSize *int                 `json:"populationSize" validate:"omitempty,min=1"`
		TargetFitness  *float64             `json:"targetFitness"`
		MaxGenerations *int                 `json:"maxGenerations" validate:"omitempty,min=1"`
		Generator      domain.GeneratorKind `json:"generator" validate:"omitempty,oneof=greedy random mixed"`
		Seed           *int64               `json:"seed"`
		NotifyEmail    string               `json:"notifyEmail" validate:"omitempty,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 没有指定的参数使用默认值，没有指定种子时随机生成一个并记录下来，便于复现
	params := solver.DefaultParameters()
	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.TargetFitness != nil {
		params.TargetFitness = *req.TargetFitness
	}
	if req.MaxGenerations != nil {
		params.MaxGenerations = *req.MaxGenerations
	}
	if req.Generator != "" {
		params.Generator = req.Generator
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	} else {
		params.Seed = time.Now().UnixNano()
	}
	if err := solver.ValidateParameters(params); err != nil {
		h.badRequest(w, r, err)
		return
	}

	run := &domain.RosterRun{
		ID:          uuid.New(),
		ProblemID:   p.ID,
		Parameters:  params,
		NotifyEmail: req.NotifyEmail,
	}
	if err := h.repository.CreateRosterRun(r.Context(), run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publishJSON(h.config.RabbitMQ.RosterQueue, domain.RosterJob{RunID: run.ID}); err != nil {
		// 消息没有投递出去，这条记录永远不会被执行
		if delErr := h.repository.DeleteQueuedRosterRun(context.Background(), run.ID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已提交求解任务", run)
}

func (h *Handler) GetProblemRosterRuns(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ProblemCtx).(*domain.Problem)

	runs, err := h.repository.GetRosterRunsByProblemID(r.Context(), p.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取求解记录成功", runs)
}

// GetRosterRun 运行中的记录会附带 redis 中的实时进度
func (h *Handler) GetRosterRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RosterRunCtx).(*domain.RosterRun)

	var resp struct {
		*domain.RosterRun
		Progress *domain.RosterRunProgress `json:"progress"`
	}
	resp.RosterRun = run

	if run.Status == domain.RosterRunRunning {
		progress, err := h.getProgress(r.Context(), run.ID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		resp.Progress = progress
	}

	h.successResponse(w, r, "获取求解记录成功", resp)
}

func (h *Handler) getProgress(ctx context.Context, id uuid.UUID) (*domain.RosterRunProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	data, err := h.redisClient.Get(ctx, domain.RosterRunProgressKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// worker 还没有汇报过进度
			return nil, nil
		}
		return nil, err
	}

	progress := &domain.RosterRunProgress{}
	if err := json.Unmarshal(data, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// GetRosterRunSchedule 以文本格式返回求解得到的排班表
func (h *Handler) GetRosterRunSchedule(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(RosterRunCtx).(*domain.RosterRun)

	if run.Status != domain.RosterRunCompleted {
		h.errorResponse(w, r, "求解尚未完成")
		return
	}

	p, err := h.repository.GetProblemByID(r.Context(), run.ProblemID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	m, err := scheduler.MatrixFromNames(p, run.Schedule)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := scheduler.WriteSchedule(&buf, p, m, *run.Fitness, *run.Feasible); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeText(w, r, buf.Bytes())
}
