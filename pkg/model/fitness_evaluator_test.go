package model

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitnessEvaluatorZeroBaseline(t *testing.T) {
	//** Arrange
	pool := newPool(t, conflictFreeInput())
	evaluator := NewFitnessEvaluator(DefaultWeights())

	//** Act
	breakdown := evaluator.Evaluate(conflictFreeSchedule(), pool)

	//** Assert
	assert.Equal(t, Breakdown{}, breakdown)
	assert.Zero(t, evaluator.Score(conflictFreeSchedule(), pool))
}

func TestFitnessEvaluatorDeterminism(t *testing.T) {
	pool := samplePool(t)
	evaluator := NewFitnessEvaluator(DefaultWeights())
	schedule := randomSchedule(Obligations(pool), NewCandidateGenerator(pool), seeded(7))

	first := evaluator.Evaluate(schedule, pool)
	second := evaluator.Evaluate(schedule, pool)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Total(), evaluator.Score(schedule, pool))
	assert.Positive(t, first.Total())
}

func TestFitnessEvaluatorAdditivity(t *testing.T) {
	//** Arrange
	pool := newPool(t, conflictFreeInput())
	evaluator := NewFitnessEvaluator(DefaultWeights())
	schedule := conflictFreeSchedule()
	// Lectures 0 and 2 share Monday 08:30-10:00 with different teachers
	require.Equal(t, schedule[0].TimeSlot, schedule[2].TimeSlot)

	//** Act
	schedule[2].TeacherId = schedule[0].TeacherId
	breakdown := evaluator.Evaluate(schedule, pool)

	//** Assert
	assert.Equal(t, Breakdown{TeacherDoubleBooking: DefaultWeights().TeacherDoubleBooking}, breakdown)
	assert.Equal(t, DefaultWeights().TeacherDoubleBooking, breakdown.Total())
}

func TestFitnessEvaluatorTerms(t *testing.T) {
	weights := DefaultWeights()
	evaluator := NewFitnessEvaluator(weights)

	tests := []struct {
		name     string
		input    func(input *RawInput)
		mutate   func(schedule Schedule) Schedule
		expected Breakdown
	}{
		{
			name: "Afternoon lecture",
			mutate: func(schedule Schedule) Schedule {
				schedule[3].TimeSlot = NewTimeSlot(2, 3)
				return schedule
			},
			expected: Breakdown{AfternoonLecture: weights.AfternoonLecture},
		},
		{
			name: "Lab in a lecture room",
			mutate: func(schedule Schedule) Schedule {
				schedule[4].ClassroomId = 2
				return schedule
			},
			expected: Breakdown{RoomMismatch: weights.RoomMismatch},
		},
		{
			name: "Missing lab",
			mutate: func(schedule Schedule) Schedule {
				return schedule[:len(schedule)-1]
			},
			expected: Breakdown{MissingLab: weights.MissingLab},
		},
		{
			name: "Sibling subgroups together",
			mutate: func(schedule Schedule) Schedule {
				// Both CS-21 subgroups on Wednesday afternoon with different teachers and rooms
				schedule[4].TimeSlot, schedule[4].TeacherId = NewTimeSlot(2, 2), 2
				schedule[6].TimeSlot, schedule[6].ClassroomId = NewTimeSlot(2, 2), 1
				return schedule
			},
			expected: Breakdown{SiblingSubgroupOverlap: weights.SiblingSubgroupOverlap, RoomMismatch: weights.RoomMismatch},
		},
		{
			name: "Teacher gap",
			mutate: func(schedule Schedule) Schedule {
				// Ivanov teaches Monday periods 0, 2 and 3
				schedule[4].TimeSlot = NewTimeSlot(0, 3)
				return schedule
			},
			expected: Breakdown{TeacherGap: weights.TeacherGap},
		},
		{
			name: "Lecture overlaps own lab",
			mutate: func(schedule Schedule) Schedule {
				// CS-21-1 lab joins the CS-21 Tuesday lecture, leaving Ivanov a Monday gap
				schedule[4].TimeSlot, schedule[4].TeacherId, schedule[4].ClassroomId = NewTimeSlot(1, 0), 3, 3
				return schedule
			},
			expected: Breakdown{LectureLabOverlap: weights.LectureLabOverlap, TeacherGap: weights.TeacherGap},
		},
		{
			name:  "Teacher overload",
			input: func(input *RawInput) { input.Teachers[2].MaxLoad = 1 },
			mutate: func(schedule Schedule) Schedule {
				return schedule
			},
			expected: Breakdown{TeacherOverload: weights.TeacherOverload},
		},
		{
			name: "Teacher unavailable",
			input: func(input *RawInput) {
				input.Teachers[2].Availability = map[string][]string{DayNames[0]: {PeriodLabels[0]}}
			},
			mutate: func(schedule Schedule) Schedule {
				return schedule
			},
			expected: Breakdown{TeacherUnavailable: weights.TeacherUnavailable},
		},
		{
			name: "Missing lecture",
			mutate: func(schedule Schedule) Schedule {
				return schedule[1:]
			},
			expected: Breakdown{MissingLecture: weights.MissingLecture},
		},
		{
			name: "Subgroup double-booking",
			input: func(input *RawInput) {
				input.Classrooms = append(input.Classrooms, Classroom{Id: 4, Number: "202", Capacity: 30, Type: LabRoom})
			},
			mutate: func(schedule Schedule) Schedule {
				// Both CS-21-2 labs on Monday 12:00-13:30
				schedule[7].TimeSlot, schedule[7].ClassroomId = NewTimeSlot(0, 2), 4
				return schedule
			},
			expected: Breakdown{SubgroupDoubleBooking: weights.SubgroupDoubleBooking},
		},
		{
			name: "Classroom double-booking",
			mutate: func(schedule Schedule) Schedule {
				schedule[2].ClassroomId = schedule[0].ClassroomId
				return schedule
			},
			expected: Breakdown{ClassroomDoubleBooking: weights.ClassroomDoubleBooking},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			input := conflictFreeInput()
			if test.input != nil {
				test.input(&input)
			}
			pool := newPool(t, input)
			schedule := test.mutate(conflictFreeSchedule())

			assert.Equal(t, test.expected, evaluator.Evaluate(schedule, pool))
		})
	}
}

func TestFitnessEvaluatorGroupDoubleBooking(t *testing.T) {
	g := NewWithT(t)
	pool := newPool(t, conflictFreeInput())
	weights := DefaultWeights()
	evaluator := NewFitnessEvaluator(weights)

	//** Second lecture of CS-21 joins the first one, with its own teacher and room
	schedule := conflictFreeSchedule()
	schedule[1].TimeSlot = schedule[0].TimeSlot
	schedule[1].ClassroomId = 2
	schedule[2].TimeSlot = NewTimeSlot(3, 0)
	breakdown := evaluator.Evaluate(schedule, pool)

	g.Expect(breakdown.GroupDoubleBooking).To(Equal(weights.GroupDoubleBooking))
	g.Expect(breakdown.TeacherDoubleBooking).To(BeZero())
	g.Expect(breakdown.ClassroomDoubleBooking).To(BeZero())
	g.Expect(breakdown.HardConflicts()).To(BeTrue())
	// Both lectures now share a day
	g.Expect(breakdown.DailyImbalance).To(BeNumerically("~", (2-0.4)*weights.DailyImbalance, 1e-9))
}

func TestFitnessEvaluatorDailyImbalance(t *testing.T) {
	g := NewWithT(t)
	pool := newPool(t, conflictFreeInput())
	evaluator := NewFitnessEvaluator(DefaultWeights())

	//** Both CS-21 lectures on Monday morning
	schedule := conflictFreeSchedule()
	schedule[1].TimeSlot = NewTimeSlot(0, 1)
	schedule[1].ClassroomId = 2
	schedule[4].TimeSlot = NewTimeSlot(3, 1)
	schedule[6].TimeSlot = NewTimeSlot(3, 2)
	breakdown := evaluator.Evaluate(schedule, pool)

	// Two lectures on one day against a weekly average of 0.4
	g.Expect(breakdown.DailyImbalance).To(BeNumerically("~", (2-0.4)*DefaultWeights().DailyImbalance, 1e-9))
	g.Expect(breakdown.HardConflicts()).To(BeFalse())
}

func TestWeightsValidate(t *testing.T) {
	weights := DefaultWeights()
	assert.NoError(t, weights.Validate())

	weights.TeacherGap = -1
	assert.ErrorContains(t, weights.Validate(), "teacher_gap")

	weights = DefaultWeights()
	weights.MissingLab = -0.5
	assert.ErrorContains(t, weights.Validate(), "missing_lab")

	weights = Weights{}
	assert.NoError(t, weights.Validate())
}
