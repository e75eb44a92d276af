package domain

import (
	"time"

	"github.com/google/uuid"
)

type RosterRunStatus string

const (
	RosterRunQueued    RosterRunStatus = "queued"
	RosterRunRunning   RosterRunStatus = "running"
	RosterRunCompleted RosterRunStatus = "completed"
	RosterRunFailed    RosterRunStatus = "failed"
)

type GeneratorKind string

const (
	GeneratorGreedy GeneratorKind = "greedy"
	GeneratorRandom GeneratorKind = "random"
	GeneratorMixed  GeneratorKind = "mixed"
)

type RunParameters struct {
	PopulationSize int           `json:"populationSize"`
	TargetFitness  float64       `json:"targetFitness"`
	MaxGenerations int           `json:"maxGenerations"`
	Generator      GeneratorKind `json:"generator"`
	Seed           int64         `json:"seed"`
}

type RosterRun struct {
	ID             uuid.UUID       `json:"id"`
	ProblemID      int64           `json:"problemID"`
	Parameters     RunParameters   `json:"parameters"`
	Status         RosterRunStatus `json:"status"`
	Fitness        *float64        `json:"fitness"`
	HardViolations *int            `json:"hardViolations"`
	SoftScore      *int            `json:"softScore"`
	Feasible       *bool           `json:"feasible"`
	Generations    int             `json:"generations"`
	Schedule       [][]string      `json:"schedule"` // schedule[员工][天]，空字符串表示休息
	NotifyEmail    string          `json:"notifyEmail"`
	Error          string          `json:"error"`
	CreatedAt      time.Time       `json:"createdAt"`
	FinishedAt     *time.Time      `json:"finishedAt"`
	Version        int32           `json:"-"`
}

// RosterRunProgress 运行中的进度，保存在 redis 中
type RosterRunProgress struct {
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"bestFitness"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RosterJob 投递到 roster_queue 中的消息
type RosterJob struct {
	RunID uuid.UUID `json:"runID"`
}

// RosterRunProgressKey 进度在 redis 中的键
func RosterRunProgressKey(id uuid.UUID) string {
	return "roster_run_progress_" + id.String()
}
