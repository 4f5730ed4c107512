package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/limaJavier/lesson-timetabling/pkg/model"
)

//go:embed schema.sql
var schema string

// Repository persists resource pools and schedules in PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

// NewRepository builds repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type teacherRow struct {
	ID           uint64         `db:"id"`
	Name         string         `db:"name"`
	Availability types.JSONText `db:"availability"`
	MaxLoad      uint64         `db:"max_load"`
}

type classroomRow struct {
	ID       uint64 `db:"id"`
	Number   string `db:"number"`
	Capacity uint64 `db:"capacity"`
	Type     string `db:"type"`
}

type groupRow struct {
	ID           uint64 `db:"id"`
	Name         string `db:"name"`
	StudentCount uint64 `db:"student_count"`
}

type subgroupRow struct {
	ID           uint64 `db:"id"`
	GroupID      uint64 `db:"group_id"`
	Name         string `db:"name"`
	StudentCount uint64 `db:"student_count"`
}

type disciplineRow struct {
	ID   uint64 `db:"id"`
	Name string `db:"name"`
}

type qualificationRow struct {
	TeacherID    uint64 `db:"teacher_id"`
	DisciplineID uint64 `db:"discipline_id"`
}

// StoredLesson is one persisted lesson assignment.
type StoredLesson struct {
	ID           int64         `db:"id" json:"id"`
	RunID        string        `db:"run_id" json:"run_id"`
	Strategy     string        `db:"strategy" json:"strategy"`
	GroupID      sql.NullInt64 `db:"group_id" json:"-"`
	SubgroupID   sql.NullInt64 `db:"subgroup_id" json:"-"`
	TeacherID    uint64        `db:"teacher_id" json:"teacher_id"`
	ClassroomID  uint64        `db:"classroom_id" json:"classroom_id"`
	DisciplineID uint64        `db:"discipline_id" json:"discipline_id"`
	LessonType   string        `db:"lesson_type" json:"lesson_type"`
	TimeSlot     string        `db:"time_slot" json:"time_slot"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// Assignment converts the stored row back to a lesson assignment.
func (lesson StoredLesson) Assignment() (model.LessonAssignment, error) {
	slot, err := model.ParseTimeSlot(lesson.TimeSlot)
	if err != nil {
		return model.LessonAssignment{}, fmt.Errorf("stored lesson %d: %w", lesson.ID, err)
	}
	assignment := model.LessonAssignment{
		TeacherId:    lesson.TeacherID,
		ClassroomId:  lesson.ClassroomID,
		DisciplineId: lesson.DisciplineID,
		LessonType:   model.LessonType(lesson.LessonType),
		TimeSlot:     slot,
	}
	if lesson.GroupID.Valid {
		id := uint64(lesson.GroupID.Int64)
		assignment.GroupId = &id
	}
	if lesson.SubgroupID.Valid {
		id := uint64(lesson.SubgroupID.Int64)
		assignment.SubgroupId = &id
	}
	if !assignment.WellFormed() {
		return model.LessonAssignment{}, fmt.Errorf("stored lesson %d is malformed", lesson.ID)
	}
	return assignment, nil
}

// Migrate creates the tables when they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// LoadResourcePool reads every resource and builds the pool; an empty category yields model.IncompleteDataError.
func (r *Repository) LoadResourcePool(ctx context.Context) (*model.ResourcePool, error) {
	var (
		teachers       []teacherRow
		classrooms     []classroomRow
		groups         []groupRow
		subgroups      []subgroupRow
		disciplines    []disciplineRow
		qualifications []qualificationRow
	)

	if err := r.db.SelectContext(ctx, &teachers, `SELECT id, name, availability, max_load FROM teachers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	if err := r.db.SelectContext(ctx, &classrooms, `SELECT id, number, capacity, type FROM classrooms ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	if err := r.db.SelectContext(ctx, &groups, `SELECT id, name, student_count FROM student_groups ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if err := r.db.SelectContext(ctx, &subgroups, `SELECT id, group_id, name, student_count FROM subgroups ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list subgroups: %w", err)
	}
	if err := r.db.SelectContext(ctx, &disciplines, `SELECT id, name FROM disciplines ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	if err := r.db.SelectContext(ctx, &qualifications, `SELECT teacher_id, discipline_id FROM teacher_disciplines ORDER BY teacher_id, discipline_id`); err != nil {
		return nil, fmt.Errorf("list qualifications: %w", err)
	}

	input := model.RawInput{
		Teachers:       make([]model.Teacher, 0, len(teachers)),
		Classrooms:     make([]model.Classroom, 0, len(classrooms)),
		Groups:         make([]model.Group, 0, len(groups)),
		Subgroups:      make([]model.Subgroup, 0, len(subgroups)),
		Disciplines:    make([]model.Discipline, 0, len(disciplines)),
		Qualifications: make([]model.Qualification, 0, len(qualifications)),
	}
	for _, row := range teachers {
		var availability map[string][]string
		if len(row.Availability) > 0 {
			if err := row.Availability.Unmarshal(&availability); err != nil {
				return nil, fmt.Errorf("decode availability of teacher %d: %w", row.ID, err)
			}
		}
		input.Teachers = append(input.Teachers, model.Teacher{Id: row.ID, Name: row.Name, Availability: availability, MaxLoad: row.MaxLoad})
	}
	for _, row := range classrooms {
		input.Classrooms = append(input.Classrooms, model.Classroom{Id: row.ID, Number: row.Number, Capacity: row.Capacity, Type: model.ClassroomType(row.Type)})
	}
	for _, row := range groups {
		input.Groups = append(input.Groups, model.Group{Id: row.ID, Name: row.Name, StudentCount: row.StudentCount})
	}
	for _, row := range subgroups {
		input.Subgroups = append(input.Subgroups, model.Subgroup{Id: row.ID, GroupId: row.GroupID, Name: row.Name, StudentCount: row.StudentCount})
	}
	for _, row := range disciplines {
		input.Disciplines = append(input.Disciplines, model.Discipline{Id: row.ID, Name: row.Name})
	}
	for _, row := range qualifications {
		input.Qualifications = append(input.Qualifications, model.Qualification{TeacherId: row.TeacherID, DisciplineId: row.DisciplineID})
	}

	return model.NewResourcePool(input)
}

// TeachersQualifiedFor returns the ids of the teachers qualified for a discipline.
func (r *Repository) TeachersQualifiedFor(ctx context.Context, disciplineID uint64) ([]uint64, error) {
	const query = `SELECT teacher_id FROM teacher_disciplines WHERE discipline_id = $1 ORDER BY teacher_id`
	var ids []uint64
	if err := r.db.SelectContext(ctx, &ids, query, disciplineID); err != nil {
		return nil, fmt.Errorf("list qualified teachers: %w", err)
	}
	return ids, nil
}

// ClassroomsOfType returns the classrooms of a type ordered by id.
func (r *Repository) ClassroomsOfType(ctx context.Context, classroomType model.ClassroomType) ([]model.Classroom, error) {
	const query = `SELECT id, number, capacity, type FROM classrooms WHERE type = $1 ORDER BY id`
	var rows []classroomRow
	if err := r.db.SelectContext(ctx, &rows, query, string(classroomType)); err != nil {
		return nil, fmt.Errorf("list classrooms by type: %w", err)
	}
	classrooms := make([]model.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, model.Classroom{Id: row.ID, Number: row.Number, Capacity: row.Capacity, Type: model.ClassroomType(row.Type)})
	}
	return classrooms, nil
}

// SaveResourcePool upserts every resource of the input in one transaction.
func (r *Repository) SaveResourcePool(ctx context.Context, input model.RawInput) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resource pool transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const teacherQuery = `
INSERT INTO teachers (id, name, availability, max_load)
VALUES (:id, :name, :availability, :max_load)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    availability = EXCLUDED.availability,
    max_load = EXCLUDED.max_load`
	for _, teacher := range input.Teachers {
		availability, err := json.Marshal(teacher.Availability)
		if err != nil {
			return fmt.Errorf("encode availability of teacher %d: %w", teacher.Id, err)
		}
		row := teacherRow{ID: teacher.Id, Name: teacher.Name, Availability: types.JSONText(availability), MaxLoad: teacher.MaxLoad}
		if _, err := sqlx.NamedExecContext(ctx, tx, teacherQuery, row); err != nil {
			return fmt.Errorf("upsert teacher: %w", err)
		}
	}

	const classroomQuery = `
INSERT INTO classrooms (id, number, capacity, type)
VALUES (:id, :number, :capacity, :type)
ON CONFLICT (id) DO UPDATE
SET number = EXCLUDED.number,
    capacity = EXCLUDED.capacity,
    type = EXCLUDED.type`
	for _, classroom := range input.Classrooms {
		row := classroomRow{ID: classroom.Id, Number: classroom.Number, Capacity: classroom.Capacity, Type: string(classroom.Type)}
		if _, err := sqlx.NamedExecContext(ctx, tx, classroomQuery, row); err != nil {
			return fmt.Errorf("upsert classroom: %w", err)
		}
	}

	const groupQuery = `
INSERT INTO student_groups (id, name, student_count)
VALUES (:id, :name, :student_count)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    student_count = EXCLUDED.student_count`
	for _, group := range input.Groups {
		row := groupRow{ID: group.Id, Name: group.Name, StudentCount: group.StudentCount}
		if _, err := sqlx.NamedExecContext(ctx, tx, groupQuery, row); err != nil {
			return fmt.Errorf("upsert group: %w", err)
		}
	}

	const subgroupQuery = `
INSERT INTO subgroups (id, group_id, name, student_count)
VALUES (:id, :group_id, :name, :student_count)
ON CONFLICT (id) DO UPDATE
SET group_id = EXCLUDED.group_id,
    name = EXCLUDED.name,
    student_count = EXCLUDED.student_count`
	for _, subgroup := range input.Subgroups {
		row := subgroupRow{ID: subgroup.Id, GroupID: subgroup.GroupId, Name: subgroup.Name, StudentCount: subgroup.StudentCount}
		if _, err := sqlx.NamedExecContext(ctx, tx, subgroupQuery, row); err != nil {
			return fmt.Errorf("upsert subgroup: %w", err)
		}
	}

	const disciplineQuery = `
INSERT INTO disciplines (id, name)
VALUES (:id, :name)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name`
	for _, discipline := range input.Disciplines {
		row := disciplineRow{ID: discipline.Id, Name: discipline.Name}
		if _, err := sqlx.NamedExecContext(ctx, tx, disciplineQuery, row); err != nil {
			return fmt.Errorf("upsert discipline: %w", err)
		}
	}

	const qualificationQuery = `
INSERT INTO teacher_disciplines (teacher_id, discipline_id)
VALUES (:teacher_id, :discipline_id)
ON CONFLICT DO NOTHING`
	for _, qualification := range input.Qualifications {
		row := qualificationRow{TeacherID: qualification.TeacherId, DisciplineID: qualification.DisciplineId}
		if _, err := sqlx.NamedExecContext(ctx, tx, qualificationQuery, row); err != nil {
			return fmt.Errorf("insert qualification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resource pool: %w", err)
	}
	return nil
}

// SaveSchedule persists one run's schedule in one transaction and returns the run id.
func (r *Repository) SaveSchedule(ctx context.Context, strategy model.Strategy, schedule model.Schedule) (string, error) {
	if err := schedule.WellFormed(); err != nil {
		return "", err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin schedule transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO schedules (run_id, strategy, group_id, subgroup_id, teacher_id, classroom_id, discipline_id, lesson_type, time_slot)
VALUES (:run_id, :strategy, :group_id, :subgroup_id, :teacher_id, :classroom_id, :discipline_id, :lesson_type, :time_slot)`

	runID := uuid.NewString()
	for _, assignment := range schedule {
		lesson := StoredLesson{
			RunID:        runID,
			Strategy:     string(strategy),
			TeacherID:    assignment.TeacherId,
			ClassroomID:  assignment.ClassroomId,
			DisciplineID: assignment.DisciplineId,
			LessonType:   string(assignment.LessonType),
			TimeSlot:     assignment.TimeSlot.String(),
		}
		if assignment.GroupId != nil {
			lesson.GroupID = sql.NullInt64{Int64: int64(*assignment.GroupId), Valid: true}
		}
		if assignment.SubgroupId != nil {
			lesson.SubgroupID = sql.NullInt64{Int64: int64(*assignment.SubgroupId), Valid: true}
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, query, lesson); err != nil {
			return "", fmt.Errorf("insert lesson: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit schedule: %w", err)
	}
	return runID, nil
}

// ListSchedule returns every persisted lesson ordered by insertion.
func (r *Repository) ListSchedule(ctx context.Context) ([]StoredLesson, error) {
	const query = `SELECT id, run_id, strategy, group_id, subgroup_id, teacher_id, classroom_id, discipline_id, lesson_type, time_slot, created_at
FROM schedules ORDER BY id ASC`
	var lessons []StoredLesson
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return lessons, nil
}

// ListRun returns the lessons persisted by one run ordered by insertion.
func (r *Repository) ListRun(ctx context.Context, runID string) ([]StoredLesson, error) {
	const query = `SELECT id, run_id, strategy, group_id, subgroup_id, teacher_id, classroom_id, discipline_id, lesson_type, time_slot, created_at
FROM schedules WHERE run_id = $1 ORDER BY id ASC`
	var lessons []StoredLesson
	if err := r.db.SelectContext(ctx, &lessons, query, runID); err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	return lessons, nil
}

// LatestRun returns the id of the most recently saved run, sql.ErrNoRows when nothing is stored.
func (r *Repository) LatestRun(ctx context.Context) (string, error) {
	var runID string
	err := r.db.GetContext(ctx, &runID, `SELECT run_id FROM schedules ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

// DeleteSchedule removes one persisted lesson.
func (r *Repository) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lesson rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearSchedule deletes every persisted lesson.
func (r *Repository) ClearSchedule(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules`); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}
	return nil
}
