package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/limaJavier/lesson-timetabling/internal/metrics"
	"github.com/limaJavier/lesson-timetabling/pkg/model"
)

var (
	runStrategy string
	runFile     string
	runFromDB   bool
	runOut      string
	runSave     bool
	runByGroup  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a schedule with one strategy",
	Example: `  timetable run --strategy greedy --file test/pools/sample.json
  timetable run --strategy genetic --db --save --seed 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := model.ParseStrategy(runStrategy)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pool, err := loadPool(ctx, runFile)
		if err != nil {
			return err
		}

		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		zlog.Info("seeded random source", zap.Int64("seed", seed))

		evaluator := model.NewFitnessEvaluator(cfg.Weights)
		timetabler, err := model.NewTimetabler(strategy, evaluator, rand.New(rand.NewSource(seed)), zlog, cfg.Annealing, cfg.Genetic)
		if err != nil {
			return err
		}

		result, err := timetabler.Build(ctx, pool)
		cancelled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		if err != nil && !cancelled {
			return err
		}
		if cancelled {
			zlog.Warn("run interrupted, keeping the best schedule found", zap.Float64("score", result.Score))
		}

		if cfg.RepairRooms {
			result.Schedule = model.NewRoomRepairer(evaluator).Repair(result.Schedule, pool)
			result.Score = evaluator.Score(result.Schedule, pool)
		}

		conflicts := model.Verify(result.Schedule)
		for _, conflict := range conflicts {
			zlog.Warn("double booking",
				zap.String("kind", string(conflict.Kind)),
				zap.Uint64("id", conflict.EntityId),
				zap.Stringer("slot", conflict.TimeSlot),
				zap.Ints("lessons", conflict.Lessons),
			)
		}

		if cfg.Metrics.Textfile != "" {
			collector := metrics.NewCollector(prometheus.NewRegistry())
			collector.RecordRun(result, conflicts, cancelled)
			if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				zlog.Error("cannot write metrics textfile", zap.Error(err))
			}
		}

		if runSave {
			repository, closeDB, err := openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			// Saved even after an interrupt
			runID, err := repository.SaveSchedule(context.WithoutCancel(ctx), strategy, result.Schedule)
			if err != nil {
				return err
			}
			zlog.Info("schedule saved", zap.String("run_id", runID), zap.Int("assignments", len(result.Schedule)))
		}

		var output any = result
		if runByGroup {
			output = timetableByGroup(result.Schedule, pool)
		}
		return writeJSON(output, runOut)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", string(model.GreedyConstruction), fmt.Sprintf("search strategy, one of %v", model.Strategies))
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "resource pool file (JSON or YAML)")
	runCmd.Flags().BoolVar(&runFromDB, "db", false, "load the resource pool from the database")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "output file (default: standard output)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "store the schedule in the database")
	runCmd.Flags().BoolVar(&runByGroup, "by-group", false, "print the timetable of every group instead of the raw result")
	runCmd.Flags().Int64("seed", 0, "random seed (0 seeds from the clock)")
	runCmd.Flags().Bool("repair", false, "reassign classrooms after the search")
	runCmd.MarkFlagsMutuallyExclusive("file", "db")
	runCmd.MarkFlagsOneRequired("file", "db")

	_ = v.BindPFlag("seed", runCmd.Flags().Lookup("seed"))
	_ = v.BindPFlag("repair_rooms", runCmd.Flags().Lookup("repair"))
}

// loadPool reads the pool from a file, or from the database when file is empty
func loadPool(ctx context.Context, file string) (*model.ResourcePool, error) {
	if file != "" {
		return model.PoolFromFile(file)
	}

	repository, closeDB, err := openRepository()
	if err != nil {
		return nil, err
	}
	defer closeDB()
	return repository.LoadResourcePool(ctx)
}

func writeJSON(value any, out string) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if out == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(out, data, 0666); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
