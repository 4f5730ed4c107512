package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/limaJavier/lesson-timetabling/pkg/model"
	"github.com/limaJavier/lesson-timetabling/pkg/storage"
)

var (
	seedFile string
	listRun  string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repository.Migrate(cmd.Context()); err != nil {
			return err
		}
		zlog.Info("database migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store a resource pool file in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := model.InputFromFile(seedFile)
		if err != nil {
			return err
		}
		if _, err := model.NewResourcePool(input); err != nil {
			return err
		}

		repository, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repository.SaveResourcePool(cmd.Context(), input); err != nil {
			return err
		}
		zlog.Info("resource pool stored",
			zap.Int("teachers", len(input.Teachers)),
			zap.Int("classrooms", len(input.Classrooms)),
			zap.Int("groups", len(input.Groups)),
			zap.Int("subgroups", len(input.Subgroups)),
			zap.Int("disciplines", len(input.Disciplines)),
		)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		var lessons []storage.StoredLesson
		if listRun != "" {
			lessons, err = repository.ListRun(cmd.Context(), listRun)
		} else {
			lessons, err = repository.ListSchedule(cmd.Context())
		}
		if err != nil {
			return err
		}
		return writeJSON(lessons, "")
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one stored lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lesson id %q: %w", args[0], err)
		}

		repository, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repository.DeleteSchedule(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete lesson %d: %w", id, err)
		}
		zlog.Info("lesson deleted", zap.Int64("id", id))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repository.ClearSchedule(cmd.Context()); err != nil {
			return err
		}
		zlog.Info("schedule cleared")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "resource pool file (JSON or YAML)")
	_ = seedCmd.MarkFlagRequired("file")
	listCmd.Flags().StringVar(&listRun, "run", "", "only print the lessons of this run")
}
