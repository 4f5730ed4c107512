package model

import (
	"math/rand"

	"github.com/samber/lo"
)

type CandidateGenerator interface {
	// Propose returns a constraint-aware but occupancy-blind assignment for the obligation. It never fails.
	Propose(obligation Obligation, rng *rand.Rand) LessonAssignment
	// ProposeFree scans slots from least to most occupied and returns the first assignment the occupancy admits
	ProposeFree(obligation Obligation, occupancy *Occupancy, rng *rand.Rand) (LessonAssignment, bool)
	// Perturb changes exactly one of teacher, classroom or time slot of an assignment
	Perturb(assignment LessonAssignment, rng *rand.Rand) LessonAssignment
	// TeacherFor returns the teacher candidates of a discipline: the qualified ones, or every teacher if none is
	TeacherFor(disciplineId uint64) []uint64
	// ClassroomFor returns the classroom candidates of an obligation: type and capacity matching, or every classroom if none is
	ClassroomFor(obligation Obligation) []uint64
}

type candidateGenerator struct {
	pool           *ResourcePool
	teachers       []uint64
	classrooms     []uint64
	morningSlots   []TimeSlot
	afternoonSlots []TimeSlot
}

func NewCandidateGenerator(pool *ResourcePool) CandidateGenerator {
	slots := AllTimeSlots()
	return &candidateGenerator{
		pool:           pool,
		teachers:       lo.Map(pool.Teachers, func(teacher Teacher, _ int) uint64 { return teacher.Id }),
		classrooms:     lo.Map(pool.Classrooms, func(classroom Classroom, _ int) uint64 { return classroom.Id }),
		morningSlots:   lo.Filter(slots, func(slot TimeSlot, _ int) bool { return slot.Morning() }),
		afternoonSlots: lo.Filter(slots, func(slot TimeSlot, _ int) bool { return !slot.Morning() }),
	}
}

func (generator *candidateGenerator) TeacherFor(disciplineId uint64) []uint64 {
	if qualified := generator.pool.TeachersQualifiedFor(disciplineId); len(qualified) > 0 {
		return qualified
	}
	return append([]uint64(nil), generator.teachers...)
}

func (generator *candidateGenerator) ClassroomFor(obligation Obligation) []uint64 {
	if suitable := generator.suitableClassrooms(obligation.LessonType, obligation.StudentCount); len(suitable) > 0 {
		return suitable
	}
	return append([]uint64(nil), generator.classrooms...)
}

func (generator *candidateGenerator) suitableClassrooms(lessonType LessonType, studentCount uint64) []uint64 {
	suitable := lo.Filter(generator.pool.ClassroomsOfType(lessonType.Room()), func(classroom Classroom, _ int) bool {
		return classroom.Capacity >= studentCount
	})
	return lo.Map(suitable, func(classroom Classroom, _ int) uint64 { return classroom.Id })
}

func (generator *candidateGenerator) preferredSlots(lessonType LessonType) []TimeSlot {
	if lessonType == Lecture {
		return generator.morningSlots
	}
	return generator.afternoonSlots
}

func (generator *candidateGenerator) Propose(obligation Obligation, rng *rand.Rand) LessonAssignment {
	teachers := generator.TeacherFor(obligation.DisciplineId)
	classrooms := generator.ClassroomFor(obligation)
	slots := generator.preferredSlots(obligation.LessonType)
	if len(slots) == 0 {
		slots = AllTimeSlots()
	}

	return obligation.Assign(
		teachers[rng.Intn(len(teachers))],
		classrooms[rng.Intn(len(classrooms))],
		slots[rng.Intn(len(slots))],
	)
}

func (generator *candidateGenerator) ProposeFree(obligation Obligation, occupancy *Occupancy, rng *rand.Rand) (LessonAssignment, bool) {
	teachers := generator.TeacherFor(obligation.DisciplineId)
	classrooms := generator.ClassroomFor(obligation)
	rng.Shuffle(len(teachers), func(i, j int) { teachers[i], teachers[j] = teachers[j], teachers[i] })
	rng.Shuffle(len(classrooms), func(i, j int) { classrooms[i], classrooms[j] = classrooms[j], classrooms[i] })

	for _, slot := range occupancy.RankedSlots() {
		for _, teacher := range teachers {
			for _, classroom := range classrooms {
				candidate := obligation.Assign(teacher, classroom, slot)
				if occupancy.Admits(candidate) {
					return candidate, true
				}
			}
		}
	}
	return LessonAssignment{}, false
}

func (generator *candidateGenerator) Perturb(assignment LessonAssignment, rng *rand.Rand) LessonAssignment {
	switch rng.Intn(3) {
	case 0:
		// Only qualified teachers, the assignment is kept as is when there are none
		if qualified := generator.pool.TeachersQualifiedFor(assignment.DisciplineId); len(qualified) > 0 {
			assignment.TeacherId = qualified[rng.Intn(len(qualified))]
		}
	case 1:
		studentCount, _ := generator.pool.StudentCount(assignment)
		if suitable := generator.suitableClassrooms(assignment.LessonType, studentCount); len(suitable) > 0 {
			assignment.ClassroomId = suitable[rng.Intn(len(suitable))]
		}
	default:
		assignment.TimeSlot = TimeSlot(rng.Intn(SlotCount))
	}
	return assignment
}
