package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const annealingProgressInterval = 2000

type AnnealingParameters struct {
	InitialTemperature float64 `mapstructure:"initial_temperature"`
	MinTemperature     float64 `mapstructure:"min_temperature"`
	CoolingFactor      float64 `mapstructure:"cooling_factor"`
	MaxIterations      int     `mapstructure:"max_iterations"`
	StagnationLimit    int     `mapstructure:"stagnation_limit"` // Iterations without a new incumbent
}

func DefaultAnnealingParameters() AnnealingParameters {
	return AnnealingParameters{
		InitialTemperature: 1000,
		MinTemperature:     0.01,
		CoolingFactor:      0.995,
		MaxIterations:      10000,
		StagnationLimit:    2000,
	}
}

func (parameters AnnealingParameters) Validate() error {
	switch {
	case parameters.InitialTemperature <= 0:
		return errors.New("annealing initial temperature must be positive")
	case parameters.MinTemperature <= 0 || parameters.MinTemperature >= parameters.InitialTemperature:
		return errors.New("annealing minimum temperature must be positive and below the initial temperature")
	case parameters.CoolingFactor <= 0 || parameters.CoolingFactor >= 1:
		return errors.New("annealing cooling factor must be in (0, 1)")
	case parameters.MaxIterations <= 0:
		return errors.New("annealing max iterations must be positive")
	case parameters.StagnationLimit <= 0:
		return errors.New("annealing stagnation limit must be positive")
	}
	return nil
}

type annealingTimetabler struct {
	search
	parameters AnnealingParameters
}

// NewAnnealingTimetabler starts from a random schedule and walks it with single-field perturbations under a geometric cooling schedule
func NewAnnealingTimetabler(evaluator FitnessEvaluator, parameters AnnealingParameters, rng *rand.Rand, logger *zap.Logger) Timetabler {
	return &annealingTimetabler{
		search:     newSearch(SimulatedAnnealing, evaluator, rng, logger),
		parameters: parameters,
	}
}

func (timetabler *annealingTimetabler) Build(ctx context.Context, pool *ResourcePool) (Result, error) {
	started := time.Now()
	obligations := Obligations(pool)
	timetabler.start(pool, obligations)

	generator := NewCandidateGenerator(pool)
	evaluator, rng, parameters := timetabler.evaluator, timetabler.rng, timetabler.parameters

	//** Initial state
	current := randomSchedule(obligations, generator, rng)
	currentScore := evaluator.Score(current, pool)
	best, bestScore := current, currentScore
	trace := []float64{bestScore}
	evaluations := 1

	//** Search
	// Candidates are fresh clones, so current and best never alias a schedule that is mutated later
	temperature := parameters.InitialTemperature
	iteration, stagnation := 0, 0
	var err error
	for temperature > parameters.MinTemperature && iteration < parameters.MaxIterations && len(current) > 0 {
		if err = ctx.Err(); err != nil {
			break
		}

		candidate := current.Clone()
		position := rng.Intn(len(candidate))
		candidate[position] = generator.Perturb(candidate[position], rng)
		candidateScore := evaluator.Score(candidate, pool)
		evaluations++

		// Metropolis criterion
		if delta := candidateScore - currentScore; delta <= 0 || rng.Float64() < math.Exp(-delta/temperature) {
			current, currentScore = candidate, candidateScore
		}

		if currentScore < bestScore {
			best, bestScore = current, currentScore
			stagnation = 0
			timetabler.logger.Debug("new incumbent", zap.Int("iteration", iteration), zap.Float64("score", bestScore))
		} else {
			stagnation++
		}
		trace = append(trace, bestScore)

		temperature *= parameters.CoolingFactor
		iteration++

		if iteration%annealingProgressInterval == 0 {
			timetabler.logger.Info("annealing progress",
				zap.Int("iteration", iteration),
				zap.Float64("temperature", temperature),
				zap.Float64("current", currentScore),
				zap.Float64("best", bestScore),
			)
		}
		if stagnation > parameters.StagnationLimit {
			timetabler.logger.Info("annealing stagnated", zap.Int("iteration", iteration), zap.Int("stagnation", stagnation))
			break
		}
	}

	result := Result{
		Schedule: best,
		Score:    bestScore,
		Diagnostics: Diagnostics{
			Obligations:   len(obligations),
			Iterations:    iteration,
			Evaluations:   evaluations,
			BestTrace:     trace,
			BestEverScore: bestScore,
		},
	}
	timetabler.finish(&result, started)
	return result, err
}
