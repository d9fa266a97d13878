package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
)

// UsersAdd creates a password account, prompting for the password when --password is not given.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.readPassword(); err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	u := &models.User{Email: email, PasswordHash: hash, IsAdmin: cmd.Bool("admin")}
	if err := repositories.NewUserRepository(db).Create(ctx, u); err != nil {
		return err
	}

	r.logger.Info("user created", "id", u.ID, "email", u.Email, "admin", u.IsAdmin)
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	return r.writePlain("✓ Created %s %s (%s)\n", role, u.Email, u.ID)
}

// UsersList prints every account.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := repositories.NewUserRepository(db).List(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		if users == nil {
			users = []models.User{}
		}
		return r.writeJSON(users, true)
	}

	r.writePlainHeader(fmt.Sprintf("Users (%d)", len(users)))
	for _, u := range users {
		admin := ""
		if u.IsAdmin {
			admin = "admin"
		}
		r.writePlain("%-36s %-10s %-6s %s\n", u.Email, u.Provider, admin, u.CreatedAt.Local().Format(time.DateOnly))
	}
	return nil
}

// readPassword prompts twice without echo on a terminal. Otherwise the first line of
// input is the password.
func (r *Runner) readPassword() (string, error) {
	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.writePlain("Password: ")
		first, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		r.writePlain("Confirm password: ")
		second, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if string(first) != string(second) {
			return "", fmt.Errorf("%w: passwords do not match", shared.ErrInvalidInput)
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return password, nil
}
