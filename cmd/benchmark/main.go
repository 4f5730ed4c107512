package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/limaJavier/lesson-timetabling/internal/config"
	"github.com/limaJavier/lesson-timetabling/internal/logger"
	"github.com/limaJavier/lesson-timetabling/pkg/model"
)

const defaultPoolFile = "../../test/pools/sample.json"

type BenchmarkResult struct {
	Strategy      model.Strategy
	Seed          int64
	Score         float64
	Assignments   int
	Unscheduled   int
	Evaluations   int
	HardConflicts int
	Duration      int64 // Milliseconds
}

var (
	cfgFile    string
	poolFile   string
	outFile    string
	seeds      int
	strategies []string
)

var rootCmd = &cobra.Command{
	Use:          "benchmark",
	Short:        "Run every strategy over several seeds and write the scores to a CSV file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.New(), cfgFile)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		selected := make([]model.Strategy, 0, len(strategies))
		for _, name := range strategies {
			strategy, err := model.ParseStrategy(name)
			if err != nil {
				return err
			}
			selected = append(selected, strategy)
		}

		pool, err := model.PoolFromFile(poolFile)
		if err != nil {
			return fmt.Errorf("cannot load resource pool: %w", err)
		}

		results := make([]BenchmarkResult, 0, len(selected)*seeds)
		for _, strategy := range selected {
			for seed := range int64(seeds) {
				log.Info("benchmarking", zap.String("strategy", string(strategy)), zap.Int64("seed", seed+1))

				result, err := measure(cmd.Context(), strategy, seed+1, pool, cfg)
				if err != nil {
					return err
				}
				results = append(results, result)
			}
		}

		return toCsv(results, outFile)
	},
}

func main() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file with weights and search parameters")
	rootCmd.Flags().StringVarP(&poolFile, "file", "f", defaultPoolFile, "resource pool file (JSON or YAML)")
	rootCmd.Flags().StringVarP(&outFile, "out", "o", "benchmark_results.csv", "CSV output file")
	rootCmd.Flags().IntVar(&seeds, "seeds", 5, "number of seeds per strategy")
	rootCmd.Flags().StringSliceVar(&strategies, "strategies", lo.Map(model.Strategies, func(strategy model.Strategy, _ int) string { return string(strategy) }), "strategies to benchmark")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// measure runs one strategy with one seed; search logs are discarded
func measure(ctx context.Context, strategy model.Strategy, seed int64, pool *model.ResourcePool, cfg config.Config) (BenchmarkResult, error) {
	timetabler, err := model.NewTimetabler(
		strategy,
		model.NewFitnessEvaluator(cfg.Weights),
		rand.New(rand.NewSource(seed)),
		zap.NewNop(),
		cfg.Annealing,
		cfg.Genetic,
	)
	if err != nil {
		return BenchmarkResult{}, err
	}

	result, err := timetabler.Build(ctx, pool)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("%v with seed %d: %w", strategy, seed, err)
	}

	return BenchmarkResult{
		Strategy:      strategy,
		Seed:          seed,
		Score:         result.Score,
		Assignments:   len(result.Schedule),
		Unscheduled:   len(result.Diagnostics.Unscheduled),
		Evaluations:   result.Diagnostics.Evaluations,
		HardConflicts: len(model.Verify(result.Schedule)),
		Duration:      result.Diagnostics.Duration.Milliseconds(),
	}, nil
}

func toCsv(results []BenchmarkResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"Strategy", "Seed", "Score", "Assignments", "Unscheduled", "Evaluations", "HardConflicts", "Duration(ms)"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write(toRecord(result)); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func toRecord(result BenchmarkResult) []string {
	return []string{
		string(result.Strategy),
		strconv.FormatInt(result.Seed, 10),
		fmt.Sprintf("%.2f", result.Score),
		strconv.Itoa(result.Assignments),
		strconv.Itoa(result.Unscheduled),
		strconv.Itoa(result.Evaluations),
		strconv.Itoa(result.HardConflicts),
		strconv.FormatInt(result.Duration, 10),
	}
}
