package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	samplePoolFile   = "../../test/pools/sample.json"
	scenarioPoolFile = "../../test/pools/scenario.yaml"
)

func everySlot() map[string][]string {
	availability := make(map[string][]string)
	for _, day := range DayNames {
		availability[day] = PeriodLabels[:]
	}
	return availability
}

func ptr(id uint64) *uint64 {
	return &id
}

// conflictFreeInput has two groups, the first split in two subgroups, and two disciplines
func conflictFreeInput() RawInput {
	return RawInput{
		Teachers: []Teacher{
			{Id: 1, Name: "Ivanov", Availability: everySlot(), MaxLoad: 10},
			{Id: 2, Name: "Petrov", Availability: everySlot(), MaxLoad: 10},
			{Id: 3, Name: "Sydorov", Availability: everySlot(), MaxLoad: 10},
		},
		Classrooms: []Classroom{
			{Id: 1, Number: "101", Capacity: 100, Type: LectureRoom},
			{Id: 2, Number: "102", Capacity: 100, Type: LectureRoom},
			{Id: 3, Number: "201", Capacity: 30, Type: LabRoom},
		},
		Groups: []Group{
			{Id: 1, Name: "CS-21", StudentCount: 20},
			{Id: 2, Name: "CS-22", StudentCount: 20},
		},
		Subgroups: []Subgroup{
			{Id: 1, GroupId: 1, Name: "CS-21-1", StudentCount: 10},
			{Id: 2, GroupId: 1, Name: "CS-21-2", StudentCount: 10},
		},
		Disciplines: []Discipline{
			{Id: 1, Name: "Mathematics"},
			{Id: 2, Name: "Programming"},
		},
		Qualifications: []Qualification{
			{TeacherId: 1, DisciplineId: 1},
			{TeacherId: 2, DisciplineId: 2},
			{TeacherId: 3, DisciplineId: 1},
			{TeacherId: 3, DisciplineId: 2},
		},
	}
}

// conflictFreeSchedule covers every obligation of conflictFreeInput without any penalty
func conflictFreeSchedule() Schedule {
	lecture := func(group, teacher, classroom, discipline uint64, slot TimeSlot) LessonAssignment {
		return LessonAssignment{GroupId: ptr(group), TeacherId: teacher, ClassroomId: classroom, DisciplineId: discipline, LessonType: Lecture, TimeSlot: slot}
	}
	lab := func(subgroup, teacher, classroom, discipline uint64, slot TimeSlot) LessonAssignment {
		return LessonAssignment{SubgroupId: ptr(subgroup), TeacherId: teacher, ClassroomId: classroom, DisciplineId: discipline, LessonType: Lab, TimeSlot: slot}
	}

	return Schedule{
		lecture(1, 1, 1, 1, NewTimeSlot(0, 0)),
		lecture(1, 2, 1, 2, NewTimeSlot(1, 0)),
		lecture(2, 3, 2, 1, NewTimeSlot(0, 0)),
		lecture(2, 3, 2, 2, NewTimeSlot(2, 0)),
		lab(1, 1, 3, 1, NewTimeSlot(0, 1)),
		lab(1, 2, 3, 2, NewTimeSlot(1, 1)),
		lab(2, 1, 3, 1, NewTimeSlot(0, 2)),
		lab(2, 2, 3, 2, NewTimeSlot(1, 2)),
	}
}

func newPool(t *testing.T, input RawInput) *ResourcePool {
	t.Helper()
	pool, err := NewResourcePool(input)
	require.NoError(t, err)
	return pool
}

func samplePool(t *testing.T) *ResourcePool {
	t.Helper()
	pool, err := PoolFromFile(samplePoolFile)
	require.NoError(t, err)
	return pool
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func keysOf(schedule Schedule) []ObligationKey {
	keys := make([]ObligationKey, len(schedule))
	for i, assignment := range schedule {
		keys[i] = assignment.Key()
	}
	return keys
}

func obligationKeys(obligations []Obligation) []ObligationKey {
	keys := make([]ObligationKey, len(obligations))
	for i, obligation := range obligations {
		keys[i] = obligation.Key()
	}
	return keys
}
