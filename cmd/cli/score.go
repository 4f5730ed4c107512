package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/limaJavier/lesson-timetabling/pkg/model"
	"github.com/limaJavier/lesson-timetabling/pkg/storage"
)

var (
	scoreFile     string
	scoreSchedule string
	scoreRun      string
)

type scoreReport struct {
	Score     float64          `json:"score"`
	Breakdown model.Breakdown  `json:"breakdown"`
	Conflicts []model.Conflict `json:"conflicts"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a schedule produced by run, or the one stored in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := loadPool(ctx, scoreFile)
		if err != nil {
			return err
		}

		var schedule model.Schedule
		if scoreSchedule != "" {
			schedule, err = scheduleFromFile(scoreSchedule)
		} else {
			schedule, err = storedSchedule(cmd)
		}
		if err != nil {
			return err
		}
		if err := schedule.WellFormed(); err != nil {
			return err
		}

		breakdown := model.NewFitnessEvaluator(cfg.Weights).Evaluate(schedule, pool)
		report := scoreReport{
			Score:     breakdown.Total(),
			Breakdown: breakdown,
			Conflicts: model.Verify(schedule),
		}
		zlog.Info("schedule scored",
			zap.Float64("score", report.Score),
			zap.Bool("hard_conflicts", breakdown.HardConflicts()),
		)
		return writeJSON(report, "")
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "resource pool file (default: load the pool from the database)")
	scoreCmd.Flags().StringVar(&scoreSchedule, "schedule", "", "result file written by run (default: the schedule stored in the database)")
	scoreCmd.Flags().StringVar(&scoreRun, "run", "", "stored run id to score (default: the latest saved run)")
	scoreCmd.MarkFlagsMutuallyExclusive("schedule", "run")
}

func scheduleFromFile(file string) (model.Schedule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read schedule file: %w", err)
	}
	var result model.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode schedule file: %w", err)
	}
	return result.Schedule, nil
}

type runReader interface {
	LatestRun(ctx context.Context) (string, error)
	ListRun(ctx context.Context, runID string) ([]storage.StoredLesson, error)
}

func storedSchedule(cmd *cobra.Command) (model.Schedule, error) {
	repository, closeDB, err := openRepository()
	if err != nil {
		return nil, err
	}
	defer closeDB()

	return runSchedule(cmd.Context(), repository, scoreRun)
}

// runSchedule reads back the lessons of one saved run, the latest one when runID is empty
func runSchedule(ctx context.Context, reader runReader, runID string) (model.Schedule, error) {
	if runID == "" {
		latest, err := reader.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	lessons, err := reader.ListRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, fmt.Errorf("run %s has no stored lessons", runID)
	}

	schedule := make(model.Schedule, 0, len(lessons))
	for _, lesson := range lessons {
		assignment, err := lesson.Assignment()
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, assignment)
	}
	zlog.Debug("stored run loaded", zap.String("run_id", runID), zap.Int("lessons", len(schedule)))
	return schedule, nil
}
