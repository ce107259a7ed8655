package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/config"
	"github.com/spf13/cobra"
)

// tokenCmd mints a JWT for calling the API locally; login lives in another service.
func tokenCmd() *cobra.Command {
	var role, userID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development JWT for the patients API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("token is disabled in production")
			}
			switch role {
			case auth.RoleProfessional, auth.RoleReception, auth.RoleSuperAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if userID == "" {
				userID = uuid.NewString()
			}
			tok, err := auth.BuildJWT(cfg.JWTSecret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.RoleProfessional, "PROFESSIONAL, RECEPTION or SUPER_ADMIN")
	cmd.Flags().StringVar(&userID, "user", "", "subject user id (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	return cmd
}
