// Command useradd creates an account from the terminal. The password is read
// twice without echo.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"inventory_manager/internal/config"
	"inventory_manager/internal/credential"
	"inventory_manager/internal/logger"
	"inventory_manager/internal/repository"
	"inventory_manager/internal/repository/db"
	"inventory_manager/internal/service"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	configPath := flag.String("config", "", "path to config file (default configs/config.yml)")
	username := flag.String("username", "", "account name (required)")
	role := flag.String("role", "", "account role (default from auth.default_role)")
	flag.Parse()

	if err := run(context.Background(), *configPath, *username, *role, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, username, role string, w io.Writer) error {
	if username == "" {
		return errors.New("-username is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)

	hasher, err := credential.New(cfg.Credential)
	if err != nil {
		return err
	}

	password, err := promptPassword(w)
	if err != nil {
		return err
	}

	conn, err := db.InitDB(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	repos := repository.NewRepository(conn, cfg.DB.Driver)
	svc := service.NewAuthService(repos.Auth, hasher, cfg.Auth, log)

	id, err := svc.CreateUser(ctx, username, string(password), role)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created user %q with id %d\n", username, id)
	return nil
}

// promptPassword asks twice and wipes the confirmation copy.
func promptPassword(w io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(w, "Enter password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	defer clear(second)

	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
