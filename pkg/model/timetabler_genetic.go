package model

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type GeneticParameters struct {
	PopulationSize       int     `mapstructure:"population_size"`
	Generations          int     `mapstructure:"generations"`
	TournamentSize       int     `mapstructure:"tournament_size"`
	CrossoverProbability float64 `mapstructure:"crossover_probability"`
	MutationProbability  float64 `mapstructure:"mutation_probability"`
	IndexProbability     float64 `mapstructure:"index_probability"` // Per-position probability of a shuffle during mutation
	StagnationLimit      int     `mapstructure:"stagnation_limit"`  // Generations without a better population minimum
	Workers              int     `mapstructure:"workers"`           // Concurrent scorings
}

func DefaultGeneticParameters() GeneticParameters {
	return GeneticParameters{
		PopulationSize:       100,
		Generations:          100,
		TournamentSize:       3,
		CrossoverProbability: 0.7,
		MutationProbability:  0.3,
		IndexProbability:     0.15,
		StagnationLimit:      20,
		Workers:              4,
	}
}

func (parameters GeneticParameters) Validate() error {
	probability := func(p float64) bool { return p >= 0 && p <= 1 }
	switch {
	case parameters.PopulationSize <= 0:
		return errors.New("genetic population size must be positive")
	case parameters.Generations <= 0:
		return errors.New("genetic generations must be positive")
	case parameters.TournamentSize <= 0:
		return errors.New("genetic tournament size must be positive")
	case !probability(parameters.CrossoverProbability):
		return errors.New("genetic crossover probability must be in [0, 1]")
	case !probability(parameters.MutationProbability):
		return errors.New("genetic mutation probability must be in [0, 1]")
	case !probability(parameters.IndexProbability):
		return errors.New("genetic index probability must be in [0, 1]")
	case parameters.StagnationLimit <= 0:
		return errors.New("genetic stagnation limit must be positive")
	case parameters.Workers <= 0:
		return errors.New("genetic workers must be positive")
	}
	return nil
}

// Individual is a member of a genetic population: a schedule and its cached score
type Individual struct {
	Schedule Schedule
	score    float64
	valid    bool
}

func NewIndividual(schedule Schedule) *Individual {
	return &Individual{Schedule: schedule}
}

// Score returns the cached score and whether it is still valid
func (individual *Individual) Score() (float64, bool) {
	return individual.score, individual.valid
}

func (individual *Individual) SetScore(score float64) {
	individual.score, individual.valid = score, true
}

func (individual *Individual) Invalidate() {
	individual.valid = false
}

func (individual *Individual) Clone() *Individual {
	return &Individual{Schedule: individual.Schedule.Clone(), score: individual.score, valid: individual.valid}
}

type geneticTimetabler struct {
	search
	parameters GeneticParameters
}

// NewGeneticTimetabler evolves a population of random schedules with tournament selection, two-point crossover and shuffle mutation.
// The best individual of the last generation is returned.
func NewGeneticTimetabler(evaluator FitnessEvaluator, parameters GeneticParameters, rng *rand.Rand, logger *zap.Logger) Timetabler {
	return &geneticTimetabler{
		search:     newSearch(GeneticAlgorithm, evaluator, rng, logger),
		parameters: parameters,
	}
}

func (timetabler *geneticTimetabler) Build(ctx context.Context, pool *ResourcePool) (Result, error) {
	started := time.Now()
	obligations := Obligations(pool)
	timetabler.start(pool, obligations)

	generator := NewCandidateGenerator(pool)
	rng, parameters := timetabler.rng, timetabler.parameters

	//** Initial population
	population := make([]*Individual, parameters.PopulationSize)
	for i := range population {
		population[i] = NewIndividual(randomSchedule(obligations, generator, rng))
	}
	evaluations := timetabler.evaluate(population, pool)
	bestEverScore := scoreOf(fittest(population))
	trace := []float64{bestEverScore}

	//** Evolution
	generation, stagnation := 0, 0
	var err error
	for generation < parameters.Generations {
		if err = ctx.Err(); err != nil {
			break
		}

		offspring := timetabler.selectTournament(population)

		for i := 1; i < len(offspring); i += 2 {
			if rng.Float64() < parameters.CrossoverProbability {
				crossTwoPoint(offspring[i-1], offspring[i], rng)
			}
		}

		for _, individual := range offspring {
			if rng.Float64() < parameters.MutationProbability {
				shuffleIndexes(individual, parameters.IndexProbability, rng)
			}
		}

		evaluations += timetabler.evaluate(offspring, pool)
		population = offspring
		generation++

		generationScore := scoreOf(fittest(population))
		if generationScore < bestEverScore {
			bestEverScore = generationScore
			stagnation = 0
		} else {
			stagnation++
		}
		trace = append(trace, bestEverScore)
		timetabler.logger.Debug("generation evolved",
			zap.Int("generation", generation),
			zap.Float64("generation_best", generationScore),
			zap.Float64("best_ever", bestEverScore),
		)

		if stagnation >= parameters.StagnationLimit {
			timetabler.logger.Info("evolution stagnated", zap.Int("generation", generation), zap.Int("stagnation", stagnation))
			break
		}
	}

	// The final generation's best is reported, the best ever score only feeds diagnostics
	final := fittest(population)
	finalScore := scoreOf(final)

	result := Result{
		Schedule: final.Schedule,
		Score:    finalScore,
		Diagnostics: Diagnostics{
			Obligations:   len(obligations),
			Iterations:    generation,
			Evaluations:   evaluations,
			BestTrace:     trace,
			BestEverScore: bestEverScore,
		},
	}
	timetabler.finish(&result, started)
	return result, err
}

// evaluate scores every individual whose score was invalidated and returns how many were scored
func (timetabler *geneticTimetabler) evaluate(population []*Individual, pool *ResourcePool) int {
	var group errgroup.Group
	group.SetLimit(timetabler.parameters.Workers)

	scored := 0
	for _, individual := range population {
		if _, valid := individual.Score(); valid {
			continue
		}
		scored++
		group.Go(func() error {
			individual.SetScore(timetabler.evaluator.Score(individual.Schedule, pool))
			return nil
		})
	}
	_ = group.Wait()
	return scored
}

// selectTournament fills an offspring pool of the population's size with clones of tournament winners
func (timetabler *geneticTimetabler) selectTournament(population []*Individual) []*Individual {
	offspring := make([]*Individual, len(population))
	for i := range offspring {
		winner := population[timetabler.rng.Intn(len(population))]
		for range timetabler.parameters.TournamentSize - 1 {
			aspirant := population[timetabler.rng.Intn(len(population))]
			if scoreOf(aspirant) < scoreOf(winner) {
				winner = aspirant
			}
		}
		offspring[i] = winner.Clone()
	}
	return offspring
}

// crossTwoPoint exchanges the assignments between two random cut points of both parents
func crossTwoPoint(first, second *Individual, rng *rand.Rand) {
	size := min(len(first.Schedule), len(second.Schedule))
	if size < 2 {
		return
	}
	cut1 := 1 + rng.Intn(size)
	cut2 := 1 + rng.Intn(size-1)
	if cut2 >= cut1 {
		cut2++
	} else {
		cut1, cut2 = cut2, cut1
	}
	for i := cut1; i < cut2; i++ {
		first.Schedule[i], second.Schedule[i] = second.Schedule[i], first.Schedule[i]
	}
	first.Invalidate()
	second.Invalidate()
}

// shuffleIndexes swaps the placement (teacher, classroom, time slot) of random positions.
// Obligations never move, so every position keeps the group or subgroup and discipline of the layout.
func shuffleIndexes(individual *Individual, indexProbability float64, rng *rand.Rand) {
	schedule := individual.Schedule
	size := len(schedule)
	if size < 2 {
		return
	}
	for i := range size {
		if rng.Float64() >= indexProbability {
			continue
		}
		j := rng.Intn(size - 1)
		if j >= i {
			j++
		}
		schedule[i].TeacherId, schedule[j].TeacherId = schedule[j].TeacherId, schedule[i].TeacherId
		schedule[i].ClassroomId, schedule[j].ClassroomId = schedule[j].ClassroomId, schedule[i].ClassroomId
		schedule[i].TimeSlot, schedule[j].TimeSlot = schedule[j].TimeSlot, schedule[i].TimeSlot
	}
	individual.Invalidate()
}

func fittest(population []*Individual) *Individual {
	best := population[0]
	for _, individual := range population[1:] {
		if scoreOf(individual) < scoreOf(best) {
			best = individual
		}
	}
	return best
}

func scoreOf(individual *Individual) float64 {
	score, _ := individual.Score()
	return score
}
