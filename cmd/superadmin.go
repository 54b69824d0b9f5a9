package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tripnest/ms-go-session/app/repository"
	"github.com/tripnest/ms-go-session/app/service"
)

var superAdminCmd = &cobra.Command{
	Use:   "superadmin",
	Short: "Manage the super-admin account",
}

var superAdminCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create the super-admin account",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		userService, db, err := newUserServiceForSuperAdminCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		email := args[0]
		password, err := promptPassword()
		if err != nil {
			return err
		}

		user, err := userService.BootstrapSuperAdmin(context.Background(), email, password)
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				return fmt.Errorf("email %q is already in use", email)
			}
			return err
		}

		fmt.Printf("user_id: %d\n", user.ID)
		fmt.Printf("email: %s\n", user.Email)
		fmt.Printf("role: %s\n", user.EffectiveRole())
		return nil
	},
}

func init() {
	superAdminCmd.AddCommand(superAdminCreateCmd)
	rootCmd.AddCommand(superAdminCmd)
}

func newUserServiceForSuperAdminCommands() (*service.UserService, *sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("MYSQL_DSN environment variable is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewEmailHistoryRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	userService := service.NewUserService(db, userRepo, historyRepo, tokenRepo)

	return userService, db, nil
}

func promptPassword() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Password: ")
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("password is required")
	}
	return input, nil
}
