package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// IncompleteDataError is returned when a required resource category is empty
type IncompleteDataError struct {
	Missing []string
}

func (err IncompleteDataError) Error() string {
	return fmt.Sprintf("incomplete resource data: no %v", strings.Join(err.Missing, ", "))
}

// ResourcePool is an immutable, indexed snapshot of every resource the engine schedules with.
// It is safe for concurrent reads.
type ResourcePool struct {
	Teachers       []Teacher
	Classrooms     []Classroom
	Groups         []Group
	Subgroups      []Subgroup
	Disciplines    []Discipline
	Qualifications []Qualification

	teacherIndex    map[uint64]int
	classroomIndex  map[uint64]int
	groupIndex      map[uint64]int
	subgroupIndex   map[uint64]int
	disciplineIndex map[uint64]int

	qualified        map[uint64][]uint64 // Discipline -> qualified teachers
	availability     map[uint64][SlotCount]bool
	subgroupsByGroup map[uint64][]uint64
	classroomsByType map[ClassroomType][]Classroom
}

func NewResourcePool(input RawInput) (*ResourcePool, error) {
	//** Check every category is present
	missing := make([]string, 0)
	for _, category := range []struct {
		name  string
		empty bool
	}{
		{"groups", len(input.Groups) == 0},
		{"subgroups", len(input.Subgroups) == 0},
		{"teachers", len(input.Teachers) == 0},
		{"classrooms", len(input.Classrooms) == 0},
		{"disciplines", len(input.Disciplines) == 0},
	} {
		if category.empty {
			missing = append(missing, category.name)
		}
	}
	if len(missing) > 0 {
		return nil, IncompleteDataError{Missing: missing}
	}

	if err := inputValidator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid resource data: %w", err)
	}

	pool := &ResourcePool{
		Teachers:         sortedById(input.Teachers, func(teacher Teacher) uint64 { return teacher.Id }),
		Classrooms:       sortedById(input.Classrooms, func(classroom Classroom) uint64 { return classroom.Id }),
		Groups:           sortedById(input.Groups, func(group Group) uint64 { return group.Id }),
		Subgroups:        sortedById(input.Subgroups, func(subgroup Subgroup) uint64 { return subgroup.Id }),
		Disciplines:      sortedById(input.Disciplines, func(discipline Discipline) uint64 { return discipline.Id }),
		Qualifications:   slices.Clone(input.Qualifications),
		qualified:        make(map[uint64][]uint64),
		availability:     make(map[uint64][SlotCount]bool),
		subgroupsByGroup: make(map[uint64][]uint64),
		classroomsByType: make(map[ClassroomType][]Classroom),
	}

	//** Index entities
	var err error
	if pool.teacherIndex, err = indexById("teacher", pool.Teachers, func(teacher Teacher) uint64 { return teacher.Id }); err != nil {
		return nil, err
	}
	if pool.classroomIndex, err = indexById("classroom", pool.Classrooms, func(classroom Classroom) uint64 { return classroom.Id }); err != nil {
		return nil, err
	}
	if pool.groupIndex, err = indexById("group", pool.Groups, func(group Group) uint64 { return group.Id }); err != nil {
		return nil, err
	}
	if pool.subgroupIndex, err = indexById("subgroup", pool.Subgroups, func(subgroup Subgroup) uint64 { return subgroup.Id }); err != nil {
		return nil, err
	}
	if pool.disciplineIndex, err = indexById("discipline", pool.Disciplines, func(discipline Discipline) uint64 { return discipline.Id }); err != nil {
		return nil, err
	}

	//** Subgroups per group
	for _, subgroup := range pool.Subgroups {
		if _, ok := pool.groupIndex[subgroup.GroupId]; !ok {
			return nil, fmt.Errorf("subgroup %q references unknown group %d", subgroup.Name, subgroup.GroupId)
		}
		pool.subgroupsByGroup[subgroup.GroupId] = append(pool.subgroupsByGroup[subgroup.GroupId], subgroup.Id)
	}

	//** Qualifications
	for _, qualification := range pool.Qualifications {
		if _, ok := pool.teacherIndex[qualification.TeacherId]; !ok {
			return nil, fmt.Errorf("qualification references unknown teacher %d", qualification.TeacherId)
		}
		if _, ok := pool.disciplineIndex[qualification.DisciplineId]; !ok {
			return nil, fmt.Errorf("qualification references unknown discipline %d", qualification.DisciplineId)
		}
		if !slices.Contains(pool.qualified[qualification.DisciplineId], qualification.TeacherId) {
			pool.qualified[qualification.DisciplineId] = append(pool.qualified[qualification.DisciplineId], qualification.TeacherId)
		}
	}
	for discipline := range pool.qualified {
		slices.Sort(pool.qualified[discipline])
	}

	//** Availability
	for _, teacher := range pool.Teachers {
		var slots [SlotCount]bool
		for dayName, periodLabels := range teacher.Availability {
			day, err := ParseDay(dayName)
			if err != nil {
				return nil, fmt.Errorf("availability of teacher %q: %w", teacher.Name, err)
			}
			for _, periodLabel := range periodLabels {
				period, err := ParsePeriod(periodLabel)
				if err != nil {
					return nil, fmt.Errorf("availability of teacher %q: %w", teacher.Name, err)
				}
				slots[NewTimeSlot(day, period)] = true
			}
		}
		pool.availability[teacher.Id] = slots
	}

	//** Classrooms per type
	for _, classroom := range pool.Classrooms {
		pool.classroomsByType[classroom.Type] = append(pool.classroomsByType[classroom.Type], classroom)
	}

	return pool, nil
}

func sortedById[T any](items []T, id func(T) uint64) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		switch {
		case id(a) < id(b):
			return -1
		case id(a) > id(b):
			return 1
		}
		return 0
	})
	return sorted
}

func indexById[T any](entity string, items []T, id func(T) uint64) (map[uint64]int, error) {
	index := make(map[uint64]int, len(items))
	for i, item := range items {
		if _, ok := index[id(item)]; ok {
			return nil, fmt.Errorf("duplicate %v id %d", entity, id(item))
		}
		index[id(item)] = i
	}
	return index, nil
}

func (pool *ResourcePool) Teacher(id uint64) (Teacher, bool) {
	i, ok := pool.teacherIndex[id]
	if !ok {
		return Teacher{}, false
	}
	return pool.Teachers[i], true
}

func (pool *ResourcePool) Classroom(id uint64) (Classroom, bool) {
	i, ok := pool.classroomIndex[id]
	if !ok {
		return Classroom{}, false
	}
	return pool.Classrooms[i], true
}

func (pool *ResourcePool) Group(id uint64) (Group, bool) {
	i, ok := pool.groupIndex[id]
	if !ok {
		return Group{}, false
	}
	return pool.Groups[i], true
}

func (pool *ResourcePool) Subgroup(id uint64) (Subgroup, bool) {
	i, ok := pool.subgroupIndex[id]
	if !ok {
		return Subgroup{}, false
	}
	return pool.Subgroups[i], true
}

// TeachersQualifiedFor returns the ids of the teachers qualified for a discipline, ascending
func (pool *ResourcePool) TeachersQualifiedFor(disciplineId uint64) []uint64 {
	return slices.Clone(pool.qualified[disciplineId])
}

func (pool *ResourcePool) ClassroomsOfType(classroomType ClassroomType) []Classroom {
	return slices.Clone(pool.classroomsByType[classroomType])
}

// Available reports whether the teacher declared the slot in their availability
func (pool *ResourcePool) Available(teacherId uint64, slot TimeSlot) bool {
	slots, ok := pool.availability[teacherId]
	return ok && slot.Valid() && slots[slot]
}

// SubgroupsOf returns the ids of the subgroups of a group, ascending
func (pool *ResourcePool) SubgroupsOf(groupId uint64) []uint64 {
	return pool.subgroupsByGroup[groupId]
}

// ParentOf returns the group a subgroup belongs to
func (pool *ResourcePool) ParentOf(subgroupId uint64) (uint64, bool) {
	subgroup, ok := pool.Subgroup(subgroupId)
	return subgroup.GroupId, ok
}

// SparseGroups returns the groups with fewer than two subgroups
func (pool *ResourcePool) SparseGroups() []Group {
	return lo.Filter(pool.Groups, func(group Group, _ int) bool {
		return len(pool.subgroupsByGroup[group.Id]) < 2
	})
}

// StudentCount returns the size of the entity an assignment is held for
func (pool *ResourcePool) StudentCount(assignment LessonAssignment) (uint64, bool) {
	if assignment.GroupId != nil {
		group, ok := pool.Group(*assignment.GroupId)
		return group.StudentCount, ok
	}
	if assignment.SubgroupId != nil {
		subgroup, ok := pool.Subgroup(*assignment.SubgroupId)
		return subgroup.StudentCount, ok
	}
	return 0, false
}
