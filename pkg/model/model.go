package model

import (
	"fmt"
	"slices"
)

type LessonType string

const (
	Lecture LessonType = "LECTURE"
	Lab     LessonType = "LAB"
)

type ClassroomType string

const (
	LectureRoom ClassroomType = "LECTURE"
	LabRoom     ClassroomType = "LAB"
)

// Room returns the classroom type a lesson of this type must be held in
func (lessonType LessonType) Room() ClassroomType {
	if lessonType == Lecture {
		return LectureRoom
	}
	return LabRoom
}

type Teacher struct {
	Id           uint64              `json:"id" mapstructure:"id"`
	Name         string              `json:"name" mapstructure:"name" validate:"required"`
	Availability map[string][]string `json:"availability" mapstructure:"availability"` // Day name -> period labels
	MaxLoad      uint64              `json:"max_load" mapstructure:"max_load"`
}

type Classroom struct {
	Id       uint64        `json:"id" mapstructure:"id"`
	Number   string        `json:"number" mapstructure:"number" validate:"required"`
	Capacity uint64        `json:"capacity" mapstructure:"capacity" validate:"gt=0"`
	Type     ClassroomType `json:"type" mapstructure:"type" validate:"oneof=LECTURE LAB"`
}

type Group struct {
	Id           uint64 `json:"id" mapstructure:"id"`
	Name         string `json:"name" mapstructure:"name" validate:"required"`
	StudentCount uint64 `json:"student_count" mapstructure:"student_count"`
}

type Subgroup struct {
	Id           uint64 `json:"id" mapstructure:"id"`
	GroupId      uint64 `json:"group_id" mapstructure:"group_id"`
	Name         string `json:"name" mapstructure:"name" validate:"required"`
	StudentCount uint64 `json:"student_count" mapstructure:"student_count"`
}

type Discipline struct {
	Id   uint64 `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name" validate:"required"`
}

// Qualification states that a teacher may teach a discipline
type Qualification struct {
	TeacherId    uint64 `json:"teacher_id" mapstructure:"teacher_id"`
	DisciplineId uint64 `json:"discipline_id" mapstructure:"discipline_id"`
}

// LessonAssignment is the atomic decision unit: exactly one of GroupId (lectures) and SubgroupId (labs) is set
type LessonAssignment struct {
	GroupId      *uint64    `json:"group_id"`
	SubgroupId   *uint64    `json:"subgroup_id"`
	TeacherId    uint64     `json:"teacher_id"`
	ClassroomId  uint64     `json:"classroom_id"`
	DisciplineId uint64     `json:"discipline_id"`
	LessonType   LessonType `json:"lesson_type"`
	TimeSlot     TimeSlot   `json:"time_slot"`
}

func (assignment LessonAssignment) WellFormed() bool {
	switch assignment.LessonType {
	case Lecture:
		return assignment.GroupId != nil && assignment.SubgroupId == nil
	case Lab:
		return assignment.SubgroupId != nil && assignment.GroupId == nil
	}
	return false
}

func (assignment LessonAssignment) Key() ObligationKey {
	key := ObligationKey{LessonType: assignment.LessonType, DisciplineId: assignment.DisciplineId}
	if assignment.GroupId != nil {
		key.EntityId = *assignment.GroupId
	} else if assignment.SubgroupId != nil {
		key.EntityId = *assignment.SubgroupId
	}
	return key
}

// Schedule keeps every lecture (per group, then discipline) before every lab (per group, subgroup, then discipline)
type Schedule []LessonAssignment

func (schedule Schedule) Clone() Schedule {
	return slices.Clone(schedule)
}

// WellFormed checks the group-xor-subgroup invariant of every assignment
func (schedule Schedule) WellFormed() error {
	for i, assignment := range schedule {
		if !assignment.WellFormed() {
			return fmt.Errorf("assignment %d (%v) must set exactly the entity matching its lesson type", i, assignment.Key())
		}
	}
	return nil
}

// Obligation is a required lecture (group-discipline) or lab (subgroup-discipline)
type Obligation struct {
	LessonType   LessonType `json:"lesson_type"`
	GroupId      *uint64    `json:"group_id,omitempty"`
	SubgroupId   *uint64    `json:"subgroup_id,omitempty"`
	DisciplineId uint64     `json:"discipline_id"`
	StudentCount uint64     `json:"student_count"`
}

type ObligationKey struct {
	LessonType   LessonType
	EntityId     uint64
	DisciplineId uint64
}

func (obligation Obligation) Key() ObligationKey {
	return obligation.Assign(0, 0, 0).Key()
}

func (obligation Obligation) Assign(teacher, classroom uint64, slot TimeSlot) LessonAssignment {
	return LessonAssignment{
		GroupId:      obligation.GroupId,
		SubgroupId:   obligation.SubgroupId,
		TeacherId:    teacher,
		ClassroomId:  classroom,
		DisciplineId: obligation.DisciplineId,
		LessonType:   obligation.LessonType,
		TimeSlot:     slot,
	}
}

func (obligation Obligation) String() string {
	if obligation.LessonType == Lecture {
		return fmt.Sprintf("lecture{group: %d, discipline: %d}", *obligation.GroupId, obligation.DisciplineId)
	}
	return fmt.Sprintf("lab{subgroup: %d, discipline: %d}", *obligation.SubgroupId, obligation.DisciplineId)
}

// Obligations lists every lecture and lab the pool requires, in schedule order
func Obligations(pool *ResourcePool) []Obligation {
	obligations := make([]Obligation, 0, (len(pool.Groups)+len(pool.Subgroups))*len(pool.Disciplines))

	//** Lectures
	for _, group := range pool.Groups {
		for _, discipline := range pool.Disciplines {
			obligations = append(obligations, Obligation{
				LessonType:   Lecture,
				GroupId:      &group.Id,
				DisciplineId: discipline.Id,
				StudentCount: group.StudentCount,
			})
		}
	}

	//** Labs
	for _, group := range pool.Groups {
		for _, subgroupId := range pool.SubgroupsOf(group.Id) {
			subgroup, _ := pool.Subgroup(subgroupId)
			for _, discipline := range pool.Disciplines {
				obligations = append(obligations, Obligation{
					LessonType:   Lab,
					SubgroupId:   &subgroup.Id,
					DisciplineId: discipline.Id,
					StudentCount: subgroup.StudentCount,
				})
			}
		}
	}

	return obligations
}
