package model

import (
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type unassignableError struct {
	slot TimeSlot
}

func (err unassignableError) Error() string {
	return "not all lessons in " + err.slot.String() + " can be assigned a suitable classroom"
}

// RoomRepairer reassigns classrooms inside every time slot so that each lesson gets a distinct room of the right type and size.
// Time slots and teachers are never changed.
type RoomRepairer struct {
	evaluator FitnessEvaluator
}

func NewRoomRepairer(evaluator FitnessEvaluator) *RoomRepairer {
	return &RoomRepairer{evaluator: evaluator}
}

// Repair returns the repaired schedule, or the original one when repairing would raise its score.
// Slots already free of room conflicts, and slots whose lessons cannot all be matched to suitable rooms, keep their classrooms.
func (repairer *RoomRepairer) Repair(schedule Schedule, pool *ResourcePool) Schedule {
	repaired := schedule.Clone()

	var bySlot [SlotCount][]int
	for i, assignment := range repaired {
		if assignment.TimeSlot.Valid() {
			bySlot[assignment.TimeSlot] = append(bySlot[assignment.TimeSlot], i)
		}
	}

	for slot, lessons := range bySlot {
		if roomsSettled(repaired, lessons, pool) {
			continue
		}
		rooms, err := assignRooms(TimeSlot(slot), repaired, lessons, pool)
		if err != nil {
			continue
		}
		for i, lesson := range lessons {
			repaired[lesson].ClassroomId = rooms[i]
		}
	}

	if repairer.evaluator.Score(repaired, pool) <= repairer.evaluator.Score(schedule, pool) {
		return repaired
	}
	return schedule
}

// roomsSettled reports whether the lessons of a slot already sit in distinct suitable classrooms
func roomsSettled(schedule Schedule, lessons []int, pool *ResourcePool) bool {
	used := make(map[uint64]bool, len(lessons))
	for _, lesson := range lessons {
		assignment := schedule[lesson]
		classroom, ok := pool.Classroom(assignment.ClassroomId)
		studentCount, known := pool.StudentCount(assignment)
		if !ok || !known || used[classroom.Id] || !roomSuits(assignment.LessonType, classroom, studentCount) {
			return false
		}
		used[classroom.Id] = true
	}
	return true
}

// assignRooms matches the lessons of one slot to suitable classrooms and returns the classroom of every lesson, in order
func assignRooms(slot TimeSlot, schedule Schedule, lessons []int, pool *ResourcePool) ([]uint64, error) {
	// Build neighbors predicate based on the scoring room rule
	neighbors := func(lessonAny any, classroomAny any) (bool, error) {
		assignment := schedule[lessonAny.(int)]
		classroom := classroomAny.(Classroom)

		studentCount, ok := pool.StudentCount(assignment)
		return ok && roomSuits(assignment.LessonType, classroom, studentCount), nil
	}

	// Transform lessons and classrooms to slices of any
	lessonsAny := lo.Map(lessons, func(lesson int, _ int) any { return lesson })
	classroomsAny := lo.Map(pool.Classrooms, func(classroom Classroom, _ int) any { return classroom })

	graph, err := bipartitegraph.NewBipartiteGraph(lessonsAny, classroomsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()

	// Check the matching covers every lesson
	if len(matching) < len(lessons) {
		return nil, unassignableError{slot: slot}
	}

	rooms := make([]uint64, len(lessons))
	for _, edge := range matching {
		lessonIndex, classroomIndex := edge.Node1, edge.Node2-len(lessons)
		rooms[lessonIndex] = pool.Classrooms[classroomIndex].Id
	}
	return rooms, nil
}
