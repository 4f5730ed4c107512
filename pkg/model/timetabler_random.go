package model

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type randomTimetabler struct {
	search
}

// NewRandomTimetabler places every obligation once at random: an unoptimized baseline
func NewRandomTimetabler(evaluator FitnessEvaluator, rng *rand.Rand, logger *zap.Logger) Timetabler {
	return &randomTimetabler{search: newSearch(RandomSearch, evaluator, rng, logger)}
}

func (timetabler *randomTimetabler) Build(ctx context.Context, pool *ResourcePool) (Result, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	obligations := Obligations(pool)
	timetabler.start(pool, obligations)

	schedule := randomSchedule(obligations, NewCandidateGenerator(pool), timetabler.rng)
	score := timetabler.evaluator.Score(schedule, pool)

	result := Result{
		Schedule: schedule,
		Score:    score,
		Diagnostics: Diagnostics{
			Obligations:   len(obligations),
			Iterations:    1,
			Evaluations:   1,
			BestTrace:     []float64{score},
			BestEverScore: score,
		},
	}
	timetabler.finish(&result, started)
	return result, nil
}
