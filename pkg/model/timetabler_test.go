package model

import (
	"context"
	"slices"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func smallAnnealing() AnnealingParameters {
	parameters := DefaultAnnealingParameters()
	parameters.MaxIterations = 600
	parameters.StagnationLimit = 300
	return parameters
}

func smallGenetic() GeneticParameters {
	parameters := DefaultGeneticParameters()
	parameters.PopulationSize = 20
	parameters.Generations = 10
	parameters.StagnationLimit = 5
	return parameters
}

func allTimetablers(t *testing.T, seed int64) map[Strategy]Timetabler {
	evaluator := NewFitnessEvaluator(DefaultWeights())
	logger := zaptest.NewLogger(t)
	return map[Strategy]Timetabler{
		RandomSearch:       NewRandomTimetabler(evaluator, seeded(seed), logger),
		GreedyConstruction: NewGreedyTimetabler(evaluator, seeded(seed), logger),
		SimulatedAnnealing: NewAnnealingTimetabler(evaluator, smallAnnealing(), seeded(seed), logger),
		GeneticAlgorithm:   NewGeneticTimetabler(evaluator, smallGenetic(), seeded(seed), logger),
	}
}

func TestTimetablersStructuralInvariant(t *testing.T) {
	pool := samplePool(t)
	evaluator := NewFitnessEvaluator(DefaultWeights())

	for strategy, timetabler := range allTimetablers(t, 1) {
		t.Run(string(strategy), func(t *testing.T) {
			//** Act
			result, err := timetabler.Build(context.Background(), pool)

			//** Assert
			require.NoError(t, err)
			assert.NoError(t, result.Schedule.WellFormed())
			assert.Equal(t, strategy, result.Diagnostics.Strategy)
			assert.Equal(t, evaluator.Score(result.Schedule, pool), result.Score)
			assert.Equal(t, len(result.Schedule)+len(result.Diagnostics.Unscheduled), result.Diagnostics.Obligations)
		})
	}
}

func TestTimetablersReproducible(t *testing.T) {
	pool := samplePool(t)

	first, second := allTimetablers(t, 11), allTimetablers(t, 11)
	for _, strategy := range Strategies {
		t.Run(string(strategy), func(t *testing.T) {
			firstResult, err := first[strategy].Build(context.Background(), pool)
			require.NoError(t, err)
			secondResult, err := second[strategy].Build(context.Background(), pool)
			require.NoError(t, err)

			assert.Equal(t, firstResult.Schedule, secondResult.Schedule)
			assert.Equal(t, firstResult.Score, secondResult.Score)
		})
	}
}

func TestRandomTimetabler(t *testing.T) {
	g := NewWithT(t)
	pool := samplePool(t)
	timetabler := NewRandomTimetabler(nil, seeded(3), nil)

	result, err := timetabler.Build(context.Background(), pool)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(keysOf(result.Schedule)).To(Equal(obligationKeys(Obligations(pool))))
	g.Expect(result.Diagnostics.Unscheduled).To(BeEmpty())
	// Lectures land in the morning and labs in the afternoon
	for _, assignment := range result.Schedule {
		g.Expect(assignment.TimeSlot.Morning()).To(Equal(assignment.LessonType == Lecture))
	}
}

func TestGreedyTimetablerHardSafety(t *testing.T) {
	pool := samplePool(t)
	evaluator := NewFitnessEvaluator(DefaultWeights())

	for seed := range int64(5) {
		//** Arrange
		timetabler := NewGreedyTimetabler(evaluator, seeded(seed), zaptest.NewLogger(t))

		//** Act
		result, err := timetabler.Build(context.Background(), pool)

		//** Assert
		require.NoError(t, err)
		assert.Empty(t, Verify(result.Schedule), "seed %d", seed)
		breakdown := evaluator.Evaluate(result.Schedule, pool)
		assert.False(t, breakdown.HardConflicts(), "seed %d", seed)
		assert.Zero(t, breakdown.TeacherUnavailable, "seed %d", seed)
		assert.Zero(t, breakdown.LectureLabOverlap, "seed %d", seed)
	}
}

func TestGreedyTimetablerSingleWindow(t *testing.T) {
	g := NewWithT(t)

	//** Arrange
	pool, err := PoolFromFile(scenarioPoolFile)
	g.Expect(err).NotTo(HaveOccurred())
	weights := DefaultWeights()
	evaluator := NewFitnessEvaluator(weights)
	timetabler := NewGreedyTimetabler(evaluator, seeded(1), zaptest.NewLogger(t))

	//** Act
	result, err := timetabler.Build(context.Background(), pool)

	//** Assert
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Schedule).To(HaveLen(1))
	lecture := result.Schedule[0]
	g.Expect(lecture.LessonType).To(Equal(Lecture))
	g.Expect(*lecture.GroupId).To(Equal(uint64(1)))
	g.Expect(lecture.TimeSlot).To(Equal(NewTimeSlot(0, 0)))
	g.Expect(lecture.ClassroomId).To(Equal(uint64(1)))

	g.Expect(result.Diagnostics.Unscheduled).To(HaveLen(2))
	g.Expect(result.Diagnostics.Unscheduled).To(HaveEach(HaveField("LessonType", Lab)))

	breakdown := evaluator.Evaluate(result.Schedule, pool)
	g.Expect(breakdown.MissingLab).To(Equal(2 * weights.MissingLab))
	g.Expect(breakdown.HardConflicts()).To(BeFalse())
	g.Expect(result.Score).To(Equal(2 * weights.MissingLab))
}

func TestAnnealingTimetablerIncumbent(t *testing.T) {
	//** Arrange
	pool := samplePool(t)
	evaluator := NewFitnessEvaluator(DefaultWeights())
	timetabler := NewAnnealingTimetabler(evaluator, smallAnnealing(), seeded(5), zaptest.NewLogger(t))
	initial := evaluator.Score(randomSchedule(Obligations(pool), NewCandidateGenerator(pool), seeded(5)), pool)

	//** Act
	result, err := timetabler.Build(context.Background(), pool)

	//** Assert
	require.NoError(t, err)
	trace := result.Diagnostics.BestTrace
	require.NotEmpty(t, trace)
	assert.Equal(t, initial, trace[0])
	for i := 1; i < len(trace); i++ {
		assert.LessOrEqual(t, trace[i], trace[i-1])
	}
	assert.Equal(t, trace[len(trace)-1], result.Score)
	assert.Equal(t, result.Score, result.Diagnostics.BestEverScore)
	assert.LessOrEqual(t, result.Score, initial)
	assert.Len(t, result.Schedule, len(Obligations(pool)))
	assert.Equal(t, result.Diagnostics.Iterations+1, result.Diagnostics.Evaluations)
}

func TestAnnealingTimetablerCancelled(t *testing.T) {
	pool := samplePool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	timetabler := NewAnnealingTimetabler(nil, DefaultAnnealingParameters(), seeded(1), nil)

	result, err := timetabler.Build(ctx, pool)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, result.Schedule, len(Obligations(pool)))
	assert.Zero(t, result.Diagnostics.Iterations)
}

func TestGeneticOperatorsPreserveStructure(t *testing.T) {
	g := NewWithT(t)
	pool := samplePool(t)
	template := obligationKeys(Obligations(pool))
	generator := NewCandidateGenerator(pool)
	rng := seeded(9)

	for range 50 {
		first := NewIndividual(randomSchedule(Obligations(pool), generator, rng))
		second := NewIndividual(randomSchedule(Obligations(pool), generator, rng))
		first.SetScore(1)
		second.SetScore(1)

		crossTwoPoint(first, second, rng)
		shuffleIndexes(first, 0.5, rng)

		_, firstValid := first.Score()
		_, secondValid := second.Score()
		g.Expect(firstValid).To(BeFalse())
		g.Expect(secondValid).To(BeFalse())
		g.Expect(keysOf(first.Schedule)).To(Equal(template))
		g.Expect(keysOf(second.Schedule)).To(Equal(template))
		g.Expect(first.Schedule.WellFormed()).To(Succeed())
	}
}

func TestShuffleIndexesPermutesPlacements(t *testing.T) {
	pool := samplePool(t)
	individual := NewIndividual(randomSchedule(Obligations(pool), NewCandidateGenerator(pool), seeded(2)))
	placements := func(schedule Schedule) []TimeSlot {
		slots := make([]TimeSlot, len(schedule))
		for i, assignment := range schedule {
			slots[i] = assignment.TimeSlot
		}
		slices.Sort(slots)
		return slots
	}
	before := placements(individual.Schedule)

	shuffleIndexes(individual, 1, seeded(4))

	assert.Equal(t, before, placements(individual.Schedule))
}

func TestGeneticTimetabler(t *testing.T) {
	//** Arrange
	pool := samplePool(t)
	evaluator := NewFitnessEvaluator(DefaultWeights())
	timetabler := NewGeneticTimetabler(evaluator, smallGenetic(), seeded(8), zaptest.NewLogger(t))

	//** Act
	result, err := timetabler.Build(context.Background(), pool)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, obligationKeys(Obligations(pool)), keysOf(result.Schedule))
	assert.LessOrEqual(t, result.Diagnostics.BestEverScore, result.Score)
	assert.LessOrEqual(t, result.Diagnostics.Iterations, smallGenetic().Generations)
	assert.GreaterOrEqual(t, result.Diagnostics.Evaluations, smallGenetic().PopulationSize)
	for i := 1; i < len(result.Diagnostics.BestTrace); i++ {
		assert.LessOrEqual(t, result.Diagnostics.BestTrace[i], result.Diagnostics.BestTrace[i-1])
	}
}

func TestNewTimetabler(t *testing.T) {
	evaluator := NewFitnessEvaluator(DefaultWeights())

	for _, strategy := range Strategies {
		timetabler, err := NewTimetabler(strategy, evaluator, seeded(1), nil, DefaultAnnealingParameters(), DefaultGeneticParameters())
		assert.NoError(t, err)
		assert.NotNil(t, timetabler)
	}

	invalid := DefaultGeneticParameters()
	invalid.CrossoverProbability = 1.5
	_, err := NewTimetabler(GeneticAlgorithm, evaluator, seeded(1), nil, DefaultAnnealingParameters(), invalid)
	assert.Error(t, err)

	_, err = ParseStrategy("tabu")
	assert.Error(t, err)
}
