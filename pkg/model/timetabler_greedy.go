package model

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type greedyTimetabler struct {
	search
}

// NewGreedyTimetabler places obligations one by one in the least occupied slot that keeps the schedule free of hard conflicts.
// Obligations without such a slot are reported as unscheduled.
func NewGreedyTimetabler(evaluator FitnessEvaluator, rng *rand.Rand, logger *zap.Logger) Timetabler {
	return &greedyTimetabler{search: newSearch(GreedyConstruction, evaluator, rng, logger)}
}

func (timetabler *greedyTimetabler) Build(ctx context.Context, pool *ResourcePool) (Result, error) {
	started := time.Now()
	obligations := Obligations(pool)
	timetabler.start(pool, obligations)

	generator := NewCandidateGenerator(pool)
	occupancy := NewOccupancy(pool)
	schedule := make(Schedule, 0, len(obligations))
	unscheduled := make([]Obligation, 0)

	var err error
	for i, obligation := range obligations {
		if err = ctx.Err(); err != nil {
			unscheduled = append(unscheduled, obligations[i:]...)
			break
		}

		candidate, ok := generator.ProposeFree(obligation, occupancy, timetabler.rng)
		if !ok {
			timetabler.logger.Warn("obligation skipped: no conflict-free slot", zap.Stringer("obligation", obligation))
			unscheduled = append(unscheduled, obligation)
			continue
		}
		schedule = append(schedule, candidate)
		occupancy.Add(candidate)
	}

	score := timetabler.evaluator.Score(schedule, pool)
	result := Result{
		Schedule: schedule,
		Score:    score,
		Diagnostics: Diagnostics{
			Obligations:   len(obligations),
			Unscheduled:   unscheduled,
			Iterations:    len(obligations),
			Evaluations:   1,
			BestTrace:     []float64{score},
			BestEverScore: score,
		},
	}
	timetabler.finish(&result, started)
	return result, err
}
