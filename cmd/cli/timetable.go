package main

import (
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/lesson-timetabling/pkg/model"
)

type groupLesson struct {
	Day        string           `json:"day"`
	Period     string           `json:"period"`
	Type       model.LessonType `json:"type"`
	Subgroup   string           `json:"subgroup,omitempty"`
	Discipline string           `json:"discipline"`
	Teacher    string           `json:"teacher"`
	Classroom  string           `json:"classroom"`
}

// timetableByGroup lists the lessons of every group, its subgroups' labs included, in calendar order
func timetableByGroup(schedule model.Schedule, pool *model.ResourcePool) map[string][]groupLesson {
	disciplines := lo.KeyBy(pool.Disciplines, func(discipline model.Discipline) uint64 { return discipline.Id })

	sorted := schedule.Clone()
	slices.SortStableFunc(sorted, func(a, b model.LessonAssignment) int {
		return int(a.TimeSlot) - int(b.TimeSlot)
	})

	perGroup := make(map[string][]groupLesson)
	for _, assignment := range sorted {
		var groupId uint64
		lesson := groupLesson{
			Day:        model.DayNames[assignment.TimeSlot.Day()],
			Period:     model.PeriodLabels[assignment.TimeSlot.Period()],
			Type:       assignment.LessonType,
			Discipline: disciplines[assignment.DisciplineId].Name,
		}

		if assignment.GroupId != nil {
			groupId = *assignment.GroupId
		} else if subgroup, ok := pool.Subgroup(lo.FromPtr(assignment.SubgroupId)); ok {
			groupId = subgroup.GroupId
			lesson.Subgroup = subgroup.Name
		}
		if teacher, ok := pool.Teacher(assignment.TeacherId); ok {
			lesson.Teacher = teacher.Name
		}
		if classroom, ok := pool.Classroom(assignment.ClassroomId); ok {
			lesson.Classroom = classroom.Number
		}

		group, ok := pool.Group(groupId)
		if !ok {
			continue
		}
		perGroup[group.Name] = append(perGroup[group.Name], lesson)
	}
	return perGroup
}
