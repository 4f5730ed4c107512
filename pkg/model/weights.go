package model

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Weights is the penalty table shared by every strategy
type Weights struct {
	GroupDoubleBooking     float64 `json:"group_double_booking" mapstructure:"group_double_booking" validate:"gte=0"`
	SubgroupDoubleBooking  float64 `json:"subgroup_double_booking" mapstructure:"subgroup_double_booking" validate:"gte=0"`
	LectureLabOverlap      float64 `json:"lecture_lab_overlap" mapstructure:"lecture_lab_overlap" validate:"gte=0"`
	SiblingSubgroupOverlap float64 `json:"sibling_subgroup_overlap" mapstructure:"sibling_subgroup_overlap" validate:"gte=0"`
	TeacherDoubleBooking   float64 `json:"teacher_double_booking" mapstructure:"teacher_double_booking" validate:"gte=0"`
	ClassroomDoubleBooking float64 `json:"classroom_double_booking" mapstructure:"classroom_double_booking" validate:"gte=0"`
	TeacherOverload        float64 `json:"teacher_overload" mapstructure:"teacher_overload" validate:"gte=0"`
	TeacherUnavailable     float64 `json:"teacher_unavailable" mapstructure:"teacher_unavailable" validate:"gte=0"`
	RoomMismatch           float64 `json:"room_mismatch" mapstructure:"room_mismatch" validate:"gte=0"`
	DailyImbalance         float64 `json:"daily_imbalance" mapstructure:"daily_imbalance" validate:"gte=0"`
	TeacherGap             float64 `json:"teacher_gap" mapstructure:"teacher_gap" validate:"gte=0"`
	AfternoonLecture       float64 `json:"afternoon_lecture" mapstructure:"afternoon_lecture" validate:"gte=0"`
	MissingLecture         float64 `json:"missing_lecture" mapstructure:"missing_lecture" validate:"gte=0"`
	MissingLab             float64 `json:"missing_lab" mapstructure:"missing_lab" validate:"gte=0"`
}

func DefaultWeights() Weights {
	return Weights{
		GroupDoubleBooking:     10,
		SubgroupDoubleBooking:  10,
		LectureLabOverlap:      2,
		SiblingSubgroupOverlap: 1,
		TeacherDoubleBooking:   1,
		ClassroomDoubleBooking: 1,
		TeacherOverload:        10,
		TeacherUnavailable:     1,
		RoomMismatch:           5,
		DailyImbalance:         5,
		TeacherGap:             5,
		AfternoonLecture:       2,
		MissingLecture:         10,
		MissingLab:             10,
	}
}

// weightsValidator reports fields by their configuration key
var weightsValidator = func() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("mapstructure")
	})
	return validate
}()

func (weights Weights) Validate() error {
	err := weightsValidator.Struct(weights)
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return fmt.Errorf("weight %v must not be negative", invalid[0].Field())
	}
	return err
}
