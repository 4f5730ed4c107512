package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/limaJavier/lesson-timetabling/internal/config"
	"github.com/limaJavier/lesson-timetabling/internal/logger"
	"github.com/limaJavier/lesson-timetabling/pkg/storage"
)

var (
	cfgFile string
	cfg     config.Config
	v       = viper.New()
	zlog    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Weekly lesson timetable builder",
	Long: `timetable builds a weekly schedule of lectures and labs for student groups
from a pool of teachers, classrooms and disciplines.

A schedule is searched with one of four strategies (random, greedy, annealing, genetic)
and scored by a weighted penalty function; lower scores are better.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zlog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: timetable.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("dsn", "", "PostgreSQL connection string")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("dsn"))

	rootCmd.AddCommand(runCmd, scoreCmd, seedCmd, migrateCmd, listCmd, deleteCmd, clearCmd)
}

func loadConfig() error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	built, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zlog = built
	return nil
}

// openRepository connects to the configured database; the returned function closes the connection
func openRepository() (*storage.Repository, func(), error) {
	db, err := storage.Connect(storage.Options{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return storage.NewRepository(db), func() { _ = db.Close() }, nil
}
