package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/lesson-timetabling/internal/config"
	"github.com/limaJavier/lesson-timetabling/pkg/model"
)

func TestToRecord(t *testing.T) {
	record := toRecord(BenchmarkResult{
		Strategy:      model.GeneticAlgorithm,
		Seed:          3,
		Score:         41.256,
		Assignments:   24,
		Unscheduled:   0,
		Evaluations:   3120,
		HardConflicts: 2,
		Duration:      1830,
	})

	assert.Equal(t, []string{"genetic", "3", "41.26", "24", "0", "3120", "2", "1830"}, record)
}

func TestMeasureAndCsv(t *testing.T) {
	//** Arrange
	pool, err := model.PoolFromFile(defaultPoolFile)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "results.csv")

	//** Act
	result, err := measure(context.Background(), model.GreedyConstruction, 1, pool, config.Default())
	require.NoError(t, err)
	require.NoError(t, toCsv([]BenchmarkResult{result}, path))

	//** Assert
	assert.Equal(t, 1, int(result.Seed))
	assert.Equal(t, len(model.Obligations(pool)), result.Assignments+result.Unscheduled)
	assert.Zero(t, result.HardConflicts)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "greedy", rows[1][0])
}
