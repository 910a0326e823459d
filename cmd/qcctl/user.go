package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	identityapp "github.com/qcms/backend/internal/application/identity"
	"github.com/qcms/backend/internal/domain/identity"
	"github.com/qcms/backend/internal/infrastructure/auth"
	"github.com/qcms/backend/internal/infrastructure/persistence"
)

// passwordEnv is read when --password is omitted, keeping it out of shell history
const passwordEnv = "QC_USER_PASSWORD"

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login users",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var input identityapp.CreateUserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active login user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Password == "" {
				input.Password = os.Getenv(passwordEnv)
			}
			if input.Password == "" {
				return fmt.Errorf("--password or %s is required", passwordEnv)
			}
			return runUserCreate(cmd, input)
		},
	}
	cmd.Flags().StringVar(&input.Username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password (or set "+passwordEnv+")")
	cmd.Flags().StringVar(&input.DisplayName, "display-name", "", "Name shown in the UI")
	cmd.Flags().StringVar(&input.Role, "role", identity.RoleInspector, "admin, inspector or viewer")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func runUserCreate(cmd *cobra.Command, input identityapp.CreateUserInput) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	svc := identityapp.NewAuthService(
		persistence.NewGormUserRepository(env.db.DB),
		auth.NewSessionManager(env.cfg.Session),
		auth.NewInMemoryRevocationList(),
		env.log,
	)
	user, err := svc.CreateUser(cmd.Context(), input)
	if err != nil {
		return err
	}
	env.log.Info("User created",
		zap.Int64("id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role),
	)
	return nil
}
