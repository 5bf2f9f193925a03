/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/agendametrics/apiserver/config"
	"github.com/agendametrics/apiserver/internal/db"
	"github.com/agendametrics/apiserver/internal/services"
	"github.com/agendametrics/apiserver/internal/store"
	"github.com/agendametrics/apiserver/types"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts",
}

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant the admin role to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], types.RoleAdmin)
	},
}

var usersDemoteCmd = &cobra.Command{
	Use:   "demote <username>",
	Short: "Revoke the admin role from a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], types.RoleUser)
	},
}

func setRole(cmd *cobra.Command, username, role string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("users commands require DB_DRIVER=%s", config.DriverPostgres)
	}

	dbConn, err := db.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	userService := services.NewUserService(store.NewUserRepository(dbConn), nil, nil, nil, nil, nil)
	user, err := userService.SetRole(cmd.Context(), username, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, user.Role)
	return nil
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersPromoteCmd)
	usersCmd.AddCommand(usersDemoteCmd)
}
