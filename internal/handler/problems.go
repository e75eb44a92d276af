package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/parser"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

func (h *Handler) GetAllProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.repository.GetAllProblems(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班问题列表成功", problems)
}

func (h *Handler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string                    `json:"name" validate:"required"`
		Days      int                       `json:"days" validate:"min=1"`
		Shifts    []domain.ShiftType        `json:"shifts" validate:"required,dive"`
		Employees []domain.Employee         `json:"employees" validate:"required,dive"`
		Covers    []domain.CoverRequirement `json:"covers" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	p := &domain.Problem{
		Name:      req.Name,
		Days:      req.Days,
		Shifts:    req.Shifts,
		Employees: req.Employees,
		Covers:    req.Covers,
	}
	h.saveProblem(w, r, p)
}

// ImportProblem 请求体为文本格式的排班问题，名称通过 name 查询参数指定
func (h *Handler) ImportProblem(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.errorResponse(w, r, "缺少排班问题名称")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.config.Server.MaxImportSize)
	p, err := parser.Parse(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorResponse(w, r, "导入的文件过大")
			return
		}
		h.badRequest(w, r, err)
		return
	}
	p.Name = name

	h.saveProblem(w, r, p)
}

func (h *Handler) saveProblem(w http.ResponseWriter, r *http.Request, p *domain.Problem) {
	if err := utils.ValidateProblem(p); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateProblem(r.Context(), p); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建排班问题成功", p)
}

func (h *Handler) GetProblem(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ProblemCtx).(*domain.Problem)
	h.successResponse(w, r, "获取排班问题成功", p)
}

// ExportProblem 以文本格式导出排班问题
func (h *Handler) ExportProblem(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ProblemCtx).(*domain.Problem)

	var buf bytes.Buffer
	if err := parser.Format(&buf, p); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeText(w, r, buf.Bytes())
}

func (h *Handler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ProblemCtx).(*domain.Problem)

	if err := h.repository.DeleteProblem(r.Context(), p.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除排班问题成功", nil)
}

type evaluation struct {
	Fitness   float64             `json:"fitness"`
	Score     scheduler.Score     `json:"score"`
	Feasible  bool                `json:"feasible"`
	Breakdown scheduler.Breakdown `json:"breakdown"`
}

// EvaluateSchedule 对人工编排的排班表打分
func (h *Handler) EvaluateSchedule(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ProblemCtx).(*domain.Problem)

	var req struct {
		Schedule [][]string `json:"schedule" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	m, err := scheduler.MatrixFromNames(p, req.Schedule)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	evaluator, err := scheduler.NewEvaluator(p, h.config.Scheduler.HardPenalty)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	score := evaluator.Score(m)
	h.successResponse(w, r, "评估排班表成功", evaluation{
		Fitness:   score.Fitness(evaluator.HardPenalty()),
		Score:     score,
		Feasible:  score.Hard == 0,
		Breakdown: evaluator.Breakdown(m),
	})
}
