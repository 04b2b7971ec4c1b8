package main

import (
	"fmt"

	"chirp-go/internal/bootstrap"
	"chirp-go/internal/infra/database"

	"github.com/spf13/cobra"
)

var (
	createUserEmail    string
	createUserPassword string
	createUserAdmin    bool
)

// createUserCmd 创建账号，跳过注册表单校验
var createUserCmd = &cobra.Command{
	Use:   "create-user <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if createUserEmail == "" || createUserPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}

		_, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		services := bootstrap.NewServices(bootstrap.Deps{DB: database.Get()})
		user, err := services.Auth.CreateUser(cmd.Context(), args[0], createUserEmail, createUserPassword, createUserAdmin)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id=%d, admin=%t)\n", user.Username, user.ID, user.IsAdmin)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "raw password")
	createUserCmd.Flags().BoolVar(&createUserAdmin, "admin", false, "grant administrator rights")
}
