package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/construtora/agenda-api/internal/repository"
	"github.com/construtora/agenda-api/internal/roster"
	"github.com/construtora/agenda-api/pkg/database"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the team roster into the database",
	Long: `Reads the roster YAML (ROSTER_FILE or --file) and upserts its departments and
members. New members receive SEED_DEFAULT_PASSWORD; existing members keep theirs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := seedFile
		if path == "" {
			path = cfg.Roster.File
		}
		file, err := roster.Load(path)
		if err != nil {
			return err
		}

		db, err := database.NewPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()

		seeder := roster.NewSeeder(repository.NewUserRepository(db), repository.NewDepartmentRepository(db), logr)
		result, err := seeder.Seed(cmd.Context(), file, cfg.Roster.DefaultPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "departments: %d created, %d updated; users: %d created, %d updated\n",
			result.DepartmentsCreated, result.DepartmentsUpdated, result.UsersCreated, result.UsersUpdated)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "roster file, defaults to ROSTER_FILE")
}
