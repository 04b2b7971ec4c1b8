package main

import (
	"fmt"

	"chirp-go/internal/infra/database"
	"chirp-go/internal/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := database.AutoMigrate(model.All()...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
