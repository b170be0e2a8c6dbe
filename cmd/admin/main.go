// Package main provides admin management utilities. Role changes happen only
// here; the HTTP API never promotes users.
package main

import (
	"fmt"
	"os"

	"realestate/internal/config"
	"realestate/internal/database"
	"realestate/internal/models"
	"realestate/internal/repository"
	"realestate/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "Manage administrator accounts",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		roleCmd("promote", "Promote a user to admin", models.RoleAdmin),
		roleCmd("demote", "Demote an admin to a regular user", models.RoleUser),
		listAdminsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func userService() (*service.UserService, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return service.NewUserService(repository.NewUserRepository(db)), nil
}

func roleCmd(use, short string, role models.Role) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id|email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := userService()
			if err != nil {
				return err
			}
			user, err := svc.SetRole(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s, ID: %s) is now %s\n", user.Name, user.Email, user.ID, user.Role)
			return nil
		},
	}
}

func listAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List all admins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := userService()
			if err != nil {
				return err
			}
			admins, err := svc.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				fmt.Println("No admins found")
				return nil
			}
			fmt.Printf("%-36s  %-30s  %s\n", "ID", "Email", "Name")
			for _, a := range admins {
				fmt.Printf("%-36s  %-30s  %s\n", a.ID, a.Email, a.Name)
			}
			return nil
		},
	}
}
