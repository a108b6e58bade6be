// Package main provides admin management utilities for Inkraft.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"inkraft/internal/config"
	"inkraft/internal/database"
	"inkraft/internal/models"
	"inkraft/internal/repository"
	"inkraft/internal/service"
	"inkraft/internal/trust"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd(connect, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// newRootCmd builds the command tree. openDB is called lazily by the
// subcommands so --help works without a database.
func newRootCmd(openDB func() (*gorm.DB, error), out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "inkraft-admin",
		Short:        "Manage Inkraft user roles and trust scores",
		SilenceUsage: true,
	}
	root.SetOut(out)

	users := func() (*service.UserService, repository.UserRepository, error) {
		db, err := openDB()
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewUserRepository(db)
		return service.NewUserService(repo), repo, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "promote <user_id>",
		Short: "Promote a user to admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := users()
			if err != nil {
				return err
			}
			return setRole(cmd.Context(), svc, out, id, models.RoleAdmin)
		},
	})

	var demoteTo string
	demote := &cobra.Command{
		Use:   "demote <user_id>",
		Short: "Demote an admin to author (or --role reader)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			role := models.Role(demoteTo)
			if role == models.RoleAdmin {
				return fmt.Errorf("--role must be author or reader")
			}
			svc, _, err := users()
			if err != nil {
				return err
			}
			return setRole(cmd.Context(), svc, out, id, role)
		},
	}
	demote.Flags().StringVar(&demoteTo, "role", string(models.RoleAuthor), "role to demote to")
	root.AddCommand(demote)

	root.AddCommand(&cobra.Command{
		Use:   "list-admins",
		Short: "List all admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, repo, err := users()
			if err != nil {
				return err
			}
			admins, err := repo.ListByRole(cmd.Context(), models.RoleAdmin)
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				_, _ = fmt.Fprintln(out, "No admins found in the system")
				return nil
			}
			_, _ = fmt.Fprintln(out, "Current Admins:")
			for _, a := range admins {
				_, _ = fmt.Fprintf(out, "ID: %d | Username: %s | Email: %s | Banned: %t\n", a.ID, a.Username, a.Email, a.IsBanned)
			}
			return nil
		},
	})

	var freeze, unfreeze bool
	setTrust := &cobra.Command{
		Use:   "set-trust <user_id> <score>",
		Short: "Set a user's trust score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			score, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[1], err)
			}
			if score < trust.MinWeight || score > trust.MaxWeight {
				return fmt.Errorf("score must be between %.1f and %.1f", trust.MinWeight, trust.MaxWeight)
			}
			if freeze && unfreeze {
				return fmt.Errorf("--freeze and --unfreeze are mutually exclusive")
			}

			_, repo, err := users()
			if err != nil {
				return err
			}
			fields := map[string]any{"trust_score": score}
			if freeze {
				fields["trust_frozen"] = true
			}
			if unfreeze {
				fields["trust_frozen"] = false
			}
			if err := repo.UpdateFields(cmd.Context(), id, fields); err != nil {
				return err
			}
			user, err := repo.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Set trust for %s (ID: %d) to %.2f (frozen: %t)\n", user.Username, user.ID, user.TrustScore, user.TrustFrozen)
			return nil
		},
	}
	setTrust.Flags().BoolVar(&freeze, "freeze", false, "freeze the score so moderation no longer moves it")
	setTrust.Flags().BoolVar(&unfreeze, "unfreeze", false, "let moderation move the score again")
	root.AddCommand(setTrust)

	return root
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user ID %q", raw)
	}
	return uint(id), nil
}

func setRole(ctx context.Context, svc *service.UserService, out io.Writer, id uint, role models.Role) error {
	current, err := svc.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Role == role {
		_, _ = fmt.Fprintf(out, "User %s (ID: %d) is already %s\n", current.Username, current.ID, role)
		return nil
	}
	user, err := svc.SetRole(ctx, id, role)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Changed %s (ID: %d) from %s to %s\n", user.Username, user.ID, current.Role, user.Role)
	return nil
}
