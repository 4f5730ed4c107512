package model

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type Strategy string

const (
	RandomSearch       Strategy = "random"
	GreedyConstruction Strategy = "greedy"
	SimulatedAnnealing Strategy = "annealing"
	GeneticAlgorithm   Strategy = "genetic"
)

var Strategies = []Strategy{RandomSearch, GreedyConstruction, SimulatedAnnealing, GeneticAlgorithm}

func ParseStrategy(name string) (Strategy, error) {
	for _, strategy := range Strategies {
		if string(strategy) == name {
			return strategy, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (expected one of %v)", name, Strategies)
}

type Timetabler interface {
	// Build searches a schedule for the pool. The only error returned is the context's, alongside the best schedule found so far.
	Build(ctx context.Context, pool *ResourcePool) (Result, error)
}

type Result struct {
	Schedule    Schedule    `json:"assignments"`
	Score       float64     `json:"score"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

type Diagnostics struct {
	Strategy      Strategy      `json:"strategy"`
	Obligations   int           `json:"obligations"`
	Unscheduled   []Obligation  `json:"unscheduled,omitempty"`
	Iterations    int           `json:"iterations"`
	Evaluations   int           `json:"evaluations"`
	BestTrace     []float64     `json:"-"` // Incumbent score after every iteration or generation
	BestEverScore float64       `json:"best_ever_score"`
	Duration      time.Duration `json:"duration"`
}

// NewTimetabler builds the timetabler of a strategy; parameters of other strategies are ignored
func NewTimetabler(
	strategy Strategy,
	evaluator FitnessEvaluator,
	rng *rand.Rand,
	logger *zap.Logger,
	annealing AnnealingParameters,
	genetic GeneticParameters,
) (Timetabler, error) {
	switch strategy {
	case RandomSearch:
		return NewRandomTimetabler(evaluator, rng, logger), nil
	case GreedyConstruction:
		return NewGreedyTimetabler(evaluator, rng, logger), nil
	case SimulatedAnnealing:
		if err := annealing.Validate(); err != nil {
			return nil, err
		}
		return NewAnnealingTimetabler(evaluator, annealing, rng, logger), nil
	case GeneticAlgorithm:
		if err := genetic.Validate(); err != nil {
			return nil, err
		}
		return NewGeneticTimetabler(evaluator, genetic, rng, logger), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}

// search carries what every strategy is built with
type search struct {
	strategy  Strategy
	evaluator FitnessEvaluator
	rng       *rand.Rand
	logger    *zap.Logger
}

func newSearch(strategy Strategy, evaluator FitnessEvaluator, rng *rand.Rand, logger *zap.Logger) search {
	if evaluator == nil {
		evaluator = NewFitnessEvaluator(DefaultWeights())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return search{
		strategy:  strategy,
		evaluator: evaluator,
		rng:       rng,
		logger:    logger.With(zap.String("strategy", string(strategy))),
	}
}

func (s search) start(pool *ResourcePool, obligations []Obligation) {
	s.logger.Info("building schedule",
		zap.Int("obligations", len(obligations)),
		zap.Int("teachers", len(pool.Teachers)),
		zap.Int("classrooms", len(pool.Classrooms)),
	)
	for _, group := range pool.SparseGroups() {
		s.logger.Warn("group has fewer than two subgroups",
			zap.String("group", group.Name),
			zap.Int("subgroups", len(pool.SubgroupsOf(group.Id))),
		)
	}
}

func (s search) finish(result *Result, started time.Time) {
	result.Diagnostics.Strategy = s.strategy
	result.Diagnostics.Duration = time.Since(started)
	s.logger.Info("schedule built",
		zap.Float64("score", result.Score),
		zap.Int("assignments", len(result.Schedule)),
		zap.Int("unscheduled", len(result.Diagnostics.Unscheduled)),
		zap.Int("evaluations", result.Diagnostics.Evaluations),
		zap.Duration("duration", result.Diagnostics.Duration),
	)
}

// randomSchedule places every obligation once with the occupancy-blind generator
func randomSchedule(obligations []Obligation, generator CandidateGenerator, rng *rand.Rand) Schedule {
	schedule := make(Schedule, len(obligations))
	for i, obligation := range obligations {
		schedule[i] = generator.Propose(obligation, rng)
	}
	return schedule
}
