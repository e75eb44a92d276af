package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mqChannel   *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, ch *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mqChannel:   ch,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

// 校验错误信息翻译成中文
func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}
	return validate, trans, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	editors := []domain.Role{domain.RoleAdmin, domain.RolePlanner}

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.With(h.userInfo).With(h.preventOperateInitialAdmin).Delete("/{id}", h.DeleteUser)
		})

		r.Route("/problems", func(r chi.Router) {
			r.Get("/", h.GetAllProblems)
			r.With(h.RequiredRole(editors)).Post("/", h.CreateProblem)
			r.With(h.RequiredRole(editors)).Post("/import", h.ImportProblem)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.problem)
				r.Get("/", h.GetProblem)
				r.Get("/text", h.ExportProblem)
				r.With(h.RequiredRole(editors)).Delete("/", h.DeleteProblem)
				r.Post("/evaluate", h.EvaluateSchedule)
				r.Route("/runs", func(r chi.Router) {
					r.Get("/", h.GetProblemRosterRuns)
					r.With(h.RequiredRole(editors)).Post("/", h.CreateRosterRun)
				})
			})
		})

		r.Route("/runs/{id}", func(r chi.Router) {
			r.Use(h.rosterRun)
			r.Get("/", h.GetRosterRun)
			r.Get("/schedule", h.GetRosterRunSchedule)
		})
	})
}
