package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func quietOptions(seed int64) Options {
	opts := DefaultOptions()
	opts.Seed = seed
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func newTestEngine(t *testing.T, p *domain.Problem, kind domain.GeneratorKind, opts Options) *Engine {
	t.Helper()

	gen, err := NewGenerator(kind, p, newRand(opts.Seed))
	require.NoError(t, err)
	engine, err := NewEngine(gen, mustEvaluator(t, p), opts)
	require.NoError(t, err)
	return engine
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	p := wardProblem()
	gen, err := NewRandomGenerator(p, newRand(1))
	require.NoError(t, err)
	e := mustEvaluator(t, p)

	opts := quietOptions(1)
	opts.MutationProbability = 1.5
	_, err = NewEngine(gen, e, opts)
	assert.Error(t, err)

	opts = quietOptions(1)
	opts.EliteCount = -1
	_, err = NewEngine(gen, e, opts)
	assert.Error(t, err)

	_, err = NewEngine(nil, e, quietOptions(1))
	assert.Error(t, err)
}

func TestRunRejectsInvalidArguments(t *testing.T) {
	engine := newTestEngine(t, wardProblem(), domain.GeneratorRandom, quietOptions(1))

	_, err := engine.Run(context.Background(), 0, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPopulation)

	_, err = engine.Run(context.Background(), 10, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidGenerations)
}

func TestRunBestFitnessNeverIncreases(t *testing.T) {
	var generationBests, runningBests []float64
	opts := quietOptions(3)
	opts.OnGeneration = func(s GenerationStats) {
		generationBests = append(generationBests, s.GenerationBest)
		runningBests = append(runningBests, s.BestFitness)
	}
	engine := newTestEngine(t, wardProblem(), domain.GeneratorRandom, opts)

	res, err := engine.Run(context.Background(), 20, -1, 30)
	require.NoError(t, err)
	require.Len(t, generationBests, 30)
	assert.Equal(t, 30, res.Generations)

	for i := 1; i < len(generationBests); i++ {
		assert.LessOrEqual(t, generationBests[i], generationBests[i-1], "generation %d", i)
		assert.LessOrEqual(t, runningBests[i], runningBests[i-1], "generation %d", i)
	}
	assert.Equal(t, runningBests[len(runningBests)-1], res.Fitness)
}

func TestRunResultMatchesEvaluator(t *testing.T) {
	p := wardProblem()
	engine := newTestEngine(t, p, domain.GeneratorMixed, quietOptions(5))

	res, err := engine.Run(context.Background(), 12, -1, 10)
	require.NoError(t, err)

	e := mustEvaluator(t, p)
	assert.Equal(t, e.Score(res.Best), res.Score)
	assert.Equal(t, e.Evaluate(res.Best), res.Fitness)
	assert.Equal(t, e.IsFeasible(res.Best), res.Feasible)
}

func TestRunStopsWhenTargetReached(t *testing.T) {
	engine := newTestEngine(t, wardProblem(), domain.GeneratorRandom, quietOptions(1))

	res, err := engine.Run(context.Background(), 10, 1e12, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generations)
}

func TestRunSingleEmployeeReachesZero(t *testing.T) {
	p := newProblem(3, []domain.ShiftType{dayShift()}, domain.Employee{
		Name:                 "A",
		MaxTotalMinutes:      1440,
		MaxConsecutiveShifts: 3,
		MinConsecutiveShifts: 1,
		MaxWeekends:          7,
	})
	engine := newTestEngine(t, p, domain.GeneratorGreedy, quietOptions(1))

	res, err := engine.Run(context.Background(), 5, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Fitness)
	assert.True(t, res.Feasible)
	assert.Equal(t, [][]string{{"D", "D", "D"}}, res.Best.Names(p))
}

func TestRunIsReproducibleAcrossWorkers(t *testing.T) {
	p := wardProblem()

	run := func(workers int) *Result {
		opts := quietOptions(99)
		opts.Workers = workers
		res, err := newTestEngine(t, p, domain.GeneratorRandom, opts).Run(context.Background(), 16, -1, 15)
		require.NoError(t, err)
		return res
	}

	sequential := run(1)
	parallel := run(4)

	assert.Equal(t, sequential.Fitness, parallel.Fitness)
	assert.True(t, sequential.Best.Equal(parallel.Best))
}

func TestRunPopulationSmallerThanElite(t *testing.T) {
	engine := newTestEngine(t, wardProblem(), domain.GeneratorRandom, quietOptions(2))

	res, err := engine.Run(context.Background(), 2, -1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Generations)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	engine := newTestEngine(t, wardProblem(), domain.GeneratorRandom, quietOptions(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := engine.Run(ctx, 10, -1, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}
