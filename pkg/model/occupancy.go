package model

import (
	"cmp"
	"slices"
)

// Occupancy tracks who and what is already booked in every time slot of a partial schedule
type Occupancy struct {
	pool       *ResourcePool
	load       [SlotCount]int
	groups     [SlotCount]map[uint64]bool
	subgroups  [SlotCount]map[uint64]bool
	labGroups  [SlotCount]map[uint64]bool // Groups with a lab of one of their subgroups in the slot
	teachers   [SlotCount]map[uint64]bool
	classrooms [SlotCount]map[uint64]bool
}

func NewOccupancy(pool *ResourcePool) *Occupancy {
	occupancy := &Occupancy{pool: pool}
	for slot := range SlotCount {
		occupancy.groups[slot] = make(map[uint64]bool)
		occupancy.subgroups[slot] = make(map[uint64]bool)
		occupancy.labGroups[slot] = make(map[uint64]bool)
		occupancy.teachers[slot] = make(map[uint64]bool)
		occupancy.classrooms[slot] = make(map[uint64]bool)
	}
	return occupancy
}

func OccupancyOf(schedule Schedule, pool *ResourcePool) *Occupancy {
	occupancy := NewOccupancy(pool)
	for _, assignment := range schedule {
		occupancy.Add(assignment)
	}
	return occupancy
}

func (occupancy *Occupancy) Add(assignment LessonAssignment) {
	slot := assignment.TimeSlot
	if !slot.Valid() {
		return
	}
	occupancy.load[slot]++
	if assignment.GroupId != nil {
		occupancy.groups[slot][*assignment.GroupId] = true
	}
	if assignment.SubgroupId != nil {
		occupancy.subgroups[slot][*assignment.SubgroupId] = true
		if parent, ok := occupancy.pool.ParentOf(*assignment.SubgroupId); ok {
			occupancy.labGroups[slot][parent] = true
		}
	}
	occupancy.teachers[slot][assignment.TeacherId] = true
	occupancy.classrooms[slot][assignment.ClassroomId] = true
}

// Admits reports whether the assignment can join the schedule without a double-booking or an availability violation
func (occupancy *Occupancy) Admits(assignment LessonAssignment) bool {
	slot := assignment.TimeSlot
	if !slot.Valid() {
		return false
	}

	if groupId := assignment.GroupId; groupId != nil {
		// The group itself or one of its subgroups is busy
		if occupancy.groups[slot][*groupId] || occupancy.labGroups[slot][*groupId] {
			return false
		}
	}

	if subgroupId := assignment.SubgroupId; subgroupId != nil {
		if occupancy.subgroups[slot][*subgroupId] {
			return false
		}
		// The parent group attends a lecture
		if parent, ok := occupancy.pool.ParentOf(*subgroupId); ok && occupancy.groups[slot][parent] {
			return false
		}
	}

	return !occupancy.teachers[slot][assignment.TeacherId] &&
		!occupancy.classrooms[slot][assignment.ClassroomId] &&
		occupancy.pool.Available(assignment.TeacherId, slot)
}

func (occupancy *Occupancy) Load(slot TimeSlot) int {
	return occupancy.load[slot]
}

// RankedSlots returns every slot from least to most occupied, ties kept in calendar order
func (occupancy *Occupancy) RankedSlots() []TimeSlot {
	slots := AllTimeSlots()
	slices.SortStableFunc(slots, func(a, b TimeSlot) int {
		return cmp.Compare(occupancy.load[a], occupancy.load[b])
	})
	return slots
}

// IsValid is the hard-validity check of a candidate against a partial schedule
func IsValid(schedule Schedule, candidate LessonAssignment, pool *ResourcePool) bool {
	return OccupancyOf(schedule, pool).Admits(candidate)
}
