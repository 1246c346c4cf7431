package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin account",
		Long:  "Create and inspect the single administrative account for the back office.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminStatusCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the admin account",
		Long:  "Create the admin account. Only one can exist; this fails once registration has happened.",
		Example: `  atelier admin create --username alice --email alice@example.com
  atelier admin create --username alice --email alice@example.com --password secret123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(username, email, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(username, email, password string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.Admin{
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Email:        strings.TrimSpace(email),
		Role:         model.RoleAdmin,
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrAdminExists) {
			return fmt.Errorf("an admin account already exists; only one is allowed")
		}
		return err
	}

	fmt.Printf("Created admin account %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

// ---------- admin status ----------

func newAdminStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the admin account exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminStatus()
		},
	}
	return cmd
}

func runAdminStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	admin, err := store.GetAdmin(ctx)
	if errors.Is(err, config.ErrNotFound) {
		fmt.Println("No admin account yet; registration is open.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Admin account: %s <%s>\n", admin.Username, admin.Email)
	fmt.Printf("  created: %s\n", admin.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if admin.LastLoginAt != nil {
		fmt.Printf("  last login: %s\n", admin.LastLoginAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		fmt.Println("  last login: never")
	}
	return nil
}
