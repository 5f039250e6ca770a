package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tomlord1122/todo-homework/internal/repository"
	"github.com/Tomlord1122/todo-homework/internal/service"
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an active account with every permission",
	Args:  cobra.NoArgs,
	RunE:  runCreateSuperuser,
}

func init() {
	flags := createSuperuserCmd.Flags()
	flags.String("email", "", "email address used to log in")
	flags.String("name", "", "display name")
	flags.String("password", "", "password, at least 8 characters")
	for _, name := range []string{"email", "name", "password"} {
		_ = createSuperuserCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(createSuperuserCmd)
}

func runCreateSuperuser(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")

	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	users := repository.NewGormUserRepository(db.GetDB())
	verifier := service.NewVerificationService(cfg.SecretKey, users, newMailer(cfg))
	u, err := service.NewUserService(users, verifier).CreateSuperuser(cmd.Context(), email, name, password)
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d).\n", u.Email, u.ID)
	return nil
}
