package model

import "slices"

type FitnessEvaluator interface {
	// Score returns the weighted conflict total of a schedule: non-negative, 0 for a valid and fully covering schedule
	Score(schedule Schedule, pool *ResourcePool) float64
	// Evaluate returns the weighted contribution of every penalty term
	Evaluate(schedule Schedule, pool *ResourcePool) Breakdown
	Weights() Weights
}

// Breakdown holds one weighted total per penalty term
type Breakdown struct {
	GroupDoubleBooking     float64 `json:"group_double_booking"`
	SubgroupDoubleBooking  float64 `json:"subgroup_double_booking"`
	LectureLabOverlap      float64 `json:"lecture_lab_overlap"`
	SiblingSubgroupOverlap float64 `json:"sibling_subgroup_overlap"`
	TeacherDoubleBooking   float64 `json:"teacher_double_booking"`
	ClassroomDoubleBooking float64 `json:"classroom_double_booking"`
	TeacherOverload        float64 `json:"teacher_overload"`
	TeacherUnavailable     float64 `json:"teacher_unavailable"`
	RoomMismatch           float64 `json:"room_mismatch"`
	DailyImbalance         float64 `json:"daily_imbalance"`
	TeacherGap             float64 `json:"teacher_gap"`
	AfternoonLecture       float64 `json:"afternoon_lecture"`
	MissingLecture         float64 `json:"missing_lecture"`
	MissingLab             float64 `json:"missing_lab"`
}

func (breakdown Breakdown) Total() float64 {
	return breakdown.GroupDoubleBooking +
		breakdown.SubgroupDoubleBooking +
		breakdown.LectureLabOverlap +
		breakdown.SiblingSubgroupOverlap +
		breakdown.TeacherDoubleBooking +
		breakdown.ClassroomDoubleBooking +
		breakdown.TeacherOverload +
		breakdown.TeacherUnavailable +
		breakdown.RoomMismatch +
		breakdown.DailyImbalance +
		breakdown.TeacherGap +
		breakdown.AfternoonLecture +
		breakdown.MissingLecture +
		breakdown.MissingLab
}

// HardConflicts reports whether any double-booking term is non-zero
func (breakdown Breakdown) HardConflicts() bool {
	return breakdown.GroupDoubleBooking > 0 ||
		breakdown.SubgroupDoubleBooking > 0 ||
		breakdown.TeacherDoubleBooking > 0 ||
		breakdown.ClassroomDoubleBooking > 0
}

type weightedEvaluator struct {
	weights Weights
}

func NewFitnessEvaluator(weights Weights) FitnessEvaluator {
	return &weightedEvaluator{weights: weights}
}

func (evaluator *weightedEvaluator) Weights() Weights {
	return evaluator.weights
}

func (evaluator *weightedEvaluator) Score(schedule Schedule, pool *ResourcePool) float64 {
	return evaluator.Evaluate(schedule, pool).Total()
}

func (evaluator *weightedEvaluator) Evaluate(schedule Schedule, pool *ResourcePool) Breakdown {
	weights := evaluator.weights

	// Counters are weighted at the end
	var groupExcess, subgroupExcess, overlapPairs, siblingPairs, teacherPairs, classroomPairs int
	var unavailable, mismatched, afternoonLectures int
	teacherLoad := make(map[uint64]int)
	groupDayLectures := make(map[uint64]*[Days]int)
	teacherDayPeriods := make(map[uint64]*[Days][]int)
	coveredLectures, coveredLabs := make(map[[2]uint64]bool), make(map[[2]uint64]bool)

	//** Group assignments by time slot
	var bySlot [SlotCount][]int
	for i, assignment := range schedule {
		if assignment.TimeSlot.Valid() {
			bySlot[assignment.TimeSlot] = append(bySlot[assignment.TimeSlot], i)
		}
	}

	//** Per-slot conflicts
	for _, lessons := range bySlot {
		groupCount := make(map[uint64]int)
		subgroupCount := make(map[uint64]int)
		for _, i := range lessons {
			if groupId := schedule[i].GroupId; groupId != nil {
				if groupCount[*groupId]++; groupCount[*groupId] > 1 {
					groupExcess++
				}
			}
			if subgroupId := schedule[i].SubgroupId; subgroupId != nil {
				if subgroupCount[*subgroupId]++; subgroupCount[*subgroupId] > 1 {
					subgroupExcess++
				}
			}
		}

		for x := range lessons {
			for y := x + 1; y < len(lessons); y++ {
				first, second := schedule[lessons[x]], schedule[lessons[y]]
				if first.TeacherId == second.TeacherId {
					teacherPairs++
				}
				if first.ClassroomId == second.ClassroomId {
					classroomPairs++
				}
				if lectureOverlapsOwnLab(first, second, pool) || lectureOverlapsOwnLab(second, first, pool) {
					overlapPairs++
				}
				if siblingLabs(first, second, pool) {
					siblingPairs++
				}
			}
		}
	}

	//** Per-assignment penalties and counters
	for _, assignment := range schedule {
		teacherLoad[assignment.TeacherId]++

		if _, ok := pool.Teacher(assignment.TeacherId); ok && !pool.Available(assignment.TeacherId, assignment.TimeSlot) {
			unavailable++
		}

		if classroom, ok := pool.Classroom(assignment.ClassroomId); ok {
			if studentCount, ok := pool.StudentCount(assignment); ok && !roomSuits(assignment.LessonType, classroom, studentCount) {
				mismatched++
			}
		}

		if !assignment.TimeSlot.Valid() {
			continue
		}
		day := assignment.TimeSlot.Day()

		if assignment.LessonType == Lecture && assignment.GroupId != nil {
			if !assignment.TimeSlot.Morning() {
				afternoonLectures++
			}
			if _, ok := groupDayLectures[*assignment.GroupId]; !ok {
				groupDayLectures[*assignment.GroupId] = &[Days]int{}
			}
			groupDayLectures[*assignment.GroupId][day]++
			coveredLectures[[2]uint64{*assignment.GroupId, assignment.DisciplineId}] = true
		}
		if assignment.LessonType == Lab && assignment.SubgroupId != nil {
			coveredLabs[[2]uint64{*assignment.SubgroupId, assignment.DisciplineId}] = true
		}

		if _, ok := teacherDayPeriods[assignment.TeacherId]; !ok {
			teacherDayPeriods[assignment.TeacherId] = &[Days][]int{}
		}
		teacherDayPeriods[assignment.TeacherId][day] = append(teacherDayPeriods[assignment.TeacherId][day], assignment.TimeSlot.Period())
	}

	breakdown := Breakdown{
		GroupDoubleBooking:     float64(groupExcess) * weights.GroupDoubleBooking,
		SubgroupDoubleBooking:  float64(subgroupExcess) * weights.SubgroupDoubleBooking,
		LectureLabOverlap:      float64(overlapPairs) * weights.LectureLabOverlap,
		SiblingSubgroupOverlap: float64(siblingPairs) * weights.SiblingSubgroupOverlap,
		TeacherDoubleBooking:   float64(teacherPairs) * weights.TeacherDoubleBooking,
		ClassroomDoubleBooking: float64(classroomPairs) * weights.ClassroomDoubleBooking,
		TeacherUnavailable:     float64(unavailable) * weights.TeacherUnavailable,
		RoomMismatch:           float64(mismatched) * weights.RoomMismatch,
		AfternoonLecture:       float64(afternoonLectures) * weights.AfternoonLecture,
	}

	//** Teacher overload and daily gaps
	overload, gaps := 0, 0
	for _, teacher := range pool.Teachers {
		if load := uint64(teacherLoad[teacher.Id]); load > teacher.MaxLoad {
			overload += int(load - teacher.MaxLoad)
		}
		days, ok := teacherDayPeriods[teacher.Id]
		if !ok {
			continue
		}
		for _, periods := range days {
			if len(periods) > 1 && slices.Max(periods)-slices.Min(periods)+1 > len(periods) {
				gaps++
			}
		}
	}
	breakdown.TeacherOverload = float64(overload) * weights.TeacherOverload
	breakdown.TeacherGap = float64(gaps) * weights.TeacherGap

	//** Daily lecture imbalance per group
	for _, group := range pool.Groups {
		days, ok := groupDayLectures[group.Id]
		if !ok {
			continue
		}
		total := 0
		for _, count := range days {
			total += count
		}
		average := float64(total) / Days
		for _, count := range days {
			if float64(count) > average+1 {
				breakdown.DailyImbalance += (float64(count) - average) * weights.DailyImbalance
			}
		}
	}

	//** Missing coverage
	missingLectures, missingLabs := 0, 0
	for _, discipline := range pool.Disciplines {
		for _, group := range pool.Groups {
			if !coveredLectures[[2]uint64{group.Id, discipline.Id}] {
				missingLectures++
			}
		}
		for _, subgroup := range pool.Subgroups {
			if !coveredLabs[[2]uint64{subgroup.Id, discipline.Id}] {
				missingLabs++
			}
		}
	}
	breakdown.MissingLecture = float64(missingLectures) * weights.MissingLecture
	breakdown.MissingLab = float64(missingLabs) * weights.MissingLab

	return breakdown
}

// roomSuits applies the scoring rule: lectures need a lecture room holding the group, labs a lab room holding twice the subgroup
func roomSuits(lessonType LessonType, classroom Classroom, studentCount uint64) bool {
	if lessonType == Lecture {
		return classroom.Type == LectureRoom && classroom.Capacity >= studentCount
	}
	return classroom.Type == LabRoom && classroom.Capacity >= 2*studentCount
}

func lectureOverlapsOwnLab(lecture, lab LessonAssignment, pool *ResourcePool) bool {
	if lecture.GroupId == nil || lab.SubgroupId == nil {
		return false
	}
	parent, ok := pool.ParentOf(*lab.SubgroupId)
	return ok && parent == *lecture.GroupId
}

func siblingLabs(first, second LessonAssignment, pool *ResourcePool) bool {
	if first.SubgroupId == nil || second.SubgroupId == nil || *first.SubgroupId == *second.SubgroupId {
		return false
	}
	firstParent, firstOk := pool.ParentOf(*first.SubgroupId)
	secondParent, secondOk := pool.ParentOf(*second.SubgroupId)
	return firstOk && secondOk && firstParent == secondParent
}
