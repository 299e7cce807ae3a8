package main

import (
	"fmt"

	"hospital/internal/db"
	"hospital/internal/patient"
	"hospital/internal/user"

	"github.com/spf13/cobra"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			logger.Info().Msg("schema up to date")
			return nil
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert baseline data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "accounts",
		Short: "Create the USER and ADMIN roles and the user1 and admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			return seedAccounts(cmd.Context(), cfg, user.NewStore(db.DB), logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "patients",
		Short: "Insert demo patients into an empty patient table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			n, err := patient.SeedDemo(cmd.Context(), patient.NewStore(db.DB, patient.RulesFromConfig(cfg.Patients)))
			if err != nil {
				return err
			}
			logger.Info().Int("inserted", n).Msg("seeded demo patients")
			return nil
		},
	})
	return cmd
}

func useraddCmd(configPath *string) *cobra.Command {
	var (
		password string
		roles    []string
	)
	cmd := &cobra.Command{
		Use:   "useradd USERNAME",
		Short: "Create an account and grant it roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			_, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			accounts := user.NewStore(db.DB)
			err = accounts.Transaction(ctx, func(tx *user.Store) error {
				if _, err := tx.AddNewUser(ctx, args[0], password, password); err != nil {
					return err
				}
				for _, r := range roles {
					if err := tx.AssignRole(ctx, args[0], user.Role(r)); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			logger.Info().Str("username", args[0]).Strs("roles", roles).Msg("account created")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password for the new account")
	cmd.Flags().StringSliceVar(&roles, "role", []string{string(user.RoleUser)}, "Role to grant (repeatable)")
	return cmd
}
