package model

import (
	"fmt"
	"strings"
)

const (
	Days      = 5
	Periods   = 4
	SlotCount = Days * Periods
)

var (
	DayNames     = [Days]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	PeriodLabels = [Periods]string{"08:30-10:00", "10:00-11:30", "12:00-13:30", "13:30-15:00"}
)

// TimeSlot is one of the SlotCount canonical (day, period) pairs, ordered by day and then by period
type TimeSlot uint8

func NewTimeSlot(day, period int) TimeSlot {
	if day < 0 || day >= Days || period < 0 || period >= Periods {
		panic(fmt.Sprintf("time slot out of range: day %d, period %d", day, period))
	}
	return TimeSlot(day*Periods + period)
}

func AllTimeSlots() []TimeSlot {
	slots := make([]TimeSlot, SlotCount)
	for i := range SlotCount {
		slots[i] = TimeSlot(i)
	}
	return slots
}

func (slot TimeSlot) Day() int {
	return int(slot) / Periods
}

func (slot TimeSlot) Period() int {
	return int(slot) % Periods
}

// Morning reports whether the slot falls in one of the two periods before noon
func (slot TimeSlot) Morning() bool {
	return slot.Period() < 2
}

func (slot TimeSlot) Valid() bool {
	return int(slot) < SlotCount
}

func (slot TimeSlot) String() string {
	if !slot.Valid() {
		return fmt.Sprintf("TimeSlot(%d)", uint8(slot))
	}
	return DayNames[slot.Day()] + " " + PeriodLabels[slot.Period()]
}

func (slot TimeSlot) MarshalText() ([]byte, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("invalid time slot %d", uint8(slot))
	}
	return []byte(slot.String()), nil
}

func (slot *TimeSlot) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeSlot(string(text))
	if err != nil {
		return err
	}
	*slot = parsed
	return nil
}

// ParseTimeSlot parses labels such as "Monday 08:30-10:00" (the leading zero of the hour is optional)
func ParseTimeSlot(label string) (TimeSlot, error) {
	dayName, periodLabel, ok := strings.Cut(strings.TrimSpace(label), " ")
	if !ok {
		return 0, fmt.Errorf("malformed time slot %q", label)
	}
	day, err := ParseDay(dayName)
	if err != nil {
		return 0, err
	}
	period, err := ParsePeriod(periodLabel)
	if err != nil {
		return 0, err
	}
	return NewTimeSlot(day, period), nil
}

func ParseDay(name string) (int, error) {
	for day, dayName := range DayNames {
		if strings.EqualFold(dayName, strings.TrimSpace(name)) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", name)
}

func ParsePeriod(label string) (int, error) {
	normalized := normalizePeriod(label)
	for period, periodLabel := range PeriodLabels {
		if normalizePeriod(periodLabel) == normalized {
			return period, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", label)
}

func normalizePeriod(label string) string {
	return strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(label), " ", ""), "0")
}
