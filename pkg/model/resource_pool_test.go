package model

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResourcePool(t *testing.T) {
	t.Run("Empty categories", func(t *testing.T) {
		//** Arrange
		input := conflictFreeInput()
		input.Subgroups = nil
		input.Disciplines = nil

		//** Act
		pool, err := NewResourcePool(input)

		//** Assert
		assert.Nil(t, pool)
		var incomplete IncompleteDataError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, []string{"subgroups", "disciplines"}, incomplete.Missing)
	})

	t.Run("Unknown availability label", func(t *testing.T) {
		input := conflictFreeInput()
		input.Teachers[0].Availability = map[string][]string{"Monday": {"07:00-08:30"}}

		_, err := NewResourcePool(input)

		assert.ErrorContains(t, err, "unknown period")
	})

	t.Run("Duplicate ids", func(t *testing.T) {
		input := conflictFreeInput()
		input.Classrooms[1].Id = input.Classrooms[0].Id

		_, err := NewResourcePool(input)

		assert.ErrorContains(t, err, "duplicate classroom id")
	})

	t.Run("Invalid classroom type", func(t *testing.T) {
		input := conflictFreeInput()
		input.Classrooms[0].Type = "GYM"

		_, err := NewResourcePool(input)

		assert.Error(t, err)
	})

	t.Run("Dangling subgroup", func(t *testing.T) {
		input := conflictFreeInput()
		input.Subgroups[0].GroupId = 42

		_, err := NewResourcePool(input)

		assert.ErrorContains(t, err, "unknown group")
	})
}

func TestResourcePoolLookups(t *testing.T) {
	g := NewWithT(t)
	pool := newPool(t, conflictFreeInput())

	g.Expect(pool.TeachersQualifiedFor(1)).To(Equal([]uint64{1, 3}))
	g.Expect(pool.TeachersQualifiedFor(99)).To(BeEmpty())
	g.Expect(pool.ClassroomsOfType(LabRoom)).To(HaveLen(1))
	g.Expect(pool.SubgroupsOf(1)).To(Equal([]uint64{1, 2}))
	g.Expect(pool.SparseGroups()).To(ConsistOf(HaveField("Name", "CS-22")))

	parent, ok := pool.ParentOf(2)
	g.Expect(ok).To(BeTrue())
	g.Expect(parent).To(Equal(uint64(1)))

	g.Expect(pool.Available(1, NewTimeSlot(4, 3))).To(BeTrue())
	g.Expect(pool.Available(42, NewTimeSlot(0, 0))).To(BeFalse())
}

func TestInputFromFile(t *testing.T) {
	t.Run("JSON sample", func(t *testing.T) {
		//** Act
		pool := samplePool(t)

		//** Assert
		assert.Len(t, pool.Teachers, 10)
		assert.Len(t, pool.Classrooms, 7)
		assert.Len(t, pool.Groups, 4)
		assert.Len(t, pool.Subgroups, 8)
		assert.Len(t, pool.Disciplines, 5)
		// "8:30-10:00" is accepted for the first period
		assert.True(t, pool.Available(1, NewTimeSlot(0, 0)))
		assert.False(t, pool.Available(1, NewTimeSlot(0, 2)))
	})

	t.Run("YAML scenario", func(t *testing.T) {
		input, err := InputFromFile(scenarioPoolFile)

		require.NoError(t, err)
		assert.Equal(t, uint64(15), input.Subgroups[1].StudentCount)
		assert.Equal(t, []string{"08:30-10:00"}, input.Teachers[0].Availability["Monday"])
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := InputFromFile("does-not-exist.json")

		assert.Error(t, err)
	})
}

func TestObligationsOrder(t *testing.T) {
	g := NewWithT(t)
	pool := newPool(t, conflictFreeInput())

	obligations := Obligations(pool)

	g.Expect(obligationKeys(obligations)).To(Equal([]ObligationKey{
		{Lecture, 1, 1}, {Lecture, 1, 2}, {Lecture, 2, 1}, {Lecture, 2, 2},
		{Lab, 1, 1}, {Lab, 1, 2}, {Lab, 2, 1}, {Lab, 2, 2},
	}))
	g.Expect(keysOf(conflictFreeSchedule())).To(Equal(obligationKeys(obligations)))
}
