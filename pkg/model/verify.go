package model

import (
	"cmp"
	"slices"
)

type ConflictKind string

const (
	GroupConflict     ConflictKind = "group"
	SubgroupConflict  ConflictKind = "subgroup"
	TeacherConflict   ConflictKind = "teacher"
	ClassroomConflict ConflictKind = "classroom"
)

// Conflict is an entity booked more than once in a time slot
type Conflict struct {
	Kind     ConflictKind `json:"kind"`
	EntityId uint64       `json:"entity_id"`
	TimeSlot TimeSlot     `json:"time_slot"`
	Lessons  []int        `json:"lessons"` // Positions in the schedule
}

type conflictKey struct {
	kind     ConflictKind
	entityId uint64
	slot     TimeSlot
}

// Verify lists every double-booking of the schedule ordered by time slot, kind and entity
func Verify(schedule Schedule) []Conflict {
	bookings := make(map[conflictKey][]int)
	for i, assignment := range schedule {
		slot := assignment.TimeSlot
		if assignment.GroupId != nil {
			key := conflictKey{GroupConflict, *assignment.GroupId, slot}
			bookings[key] = append(bookings[key], i)
		}
		if assignment.SubgroupId != nil {
			key := conflictKey{SubgroupConflict, *assignment.SubgroupId, slot}
			bookings[key] = append(bookings[key], i)
		}
		teacherKey := conflictKey{TeacherConflict, assignment.TeacherId, slot}
		bookings[teacherKey] = append(bookings[teacherKey], i)
		classroomKey := conflictKey{ClassroomConflict, assignment.ClassroomId, slot}
		bookings[classroomKey] = append(bookings[classroomKey], i)
	}

	conflicts := make([]Conflict, 0)
	for key, lessons := range bookings {
		if len(lessons) > 1 {
			conflicts = append(conflicts, Conflict{Kind: key.kind, EntityId: key.entityId, TimeSlot: key.slot, Lessons: lessons})
		}
	}
	slices.SortFunc(conflicts, func(a, b Conflict) int {
		return cmp.Or(
			cmp.Compare(a.TimeSlot, b.TimeSlot),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.EntityId, b.EntityId),
		)
	})
	return conflicts
}
