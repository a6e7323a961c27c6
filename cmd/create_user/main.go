// Command create_user registers an account directly against the database.
//
//	create_user -email alice@example.com -name "Alice" [-password secret]
//
// The password is prompted for when -password is omitted.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"budgetd/backend"
	"budgetd/config"
	"budgetd/identity"
	"budgetd/logging"
	"budgetd/pkg/apperr"
	"budgetd/store"

	"golang.org/x/term"
)

type userStore interface {
	store.Users
	Close() error
}

type opener func(ctx context.Context, cfg *config.Config, log *logging.Logger) (userStore, error)

func openPostgres(ctx context.Context, cfg *config.Config, log *logging.Logger) (userStore, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL (or DB_DSN) not set in environment")
	}
	s, err := backend.OpenPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, config.Load(), openPostgres))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, cfg *config.Config, open opener) int {
	fs := flag.NewFlagSet("create_user", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "email address of the new user")
	name := fs.String("name", "", "full name of the new user")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *email == "" || *name == "" {
		fmt.Fprintln(stderr, "usage: create_user -email <email> -name <full name> [-password <password>]")
		return 2
	}

	pw := *password
	if pw == "" {
		var err error
		if pw, err = readPassword(stdin, stderr); err != nil {
			fmt.Fprintf(stderr, "read password: %v\n", err)
			return 1
		}
	}

	log := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: "create_user",
		Output:    stderr,
	})
	st, err := open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "open db: %v\n", err)
		return 1
	}
	defer st.Close()

	tokens, err := identity.NewTokens(cfg.SecretKey, cfg.TokenAlgorithm, cfg.TokenLifetime)
	if err != nil {
		fmt.Fprintf(stderr, "token config: %v\n", err)
		return 1
	}
	svc, err := identity.NewService(st, tokens, identity.Options{BcryptCost: cfg.BcryptCost, Logger: log})
	if err != nil {
		fmt.Fprintf(stderr, "init: %v\n", err)
		return 1
	}

	user, err := svc.Register(ctx, *email, pw, *name)
	switch {
	case apperr.IsKind(err, apperr.AlreadyExists):
		fmt.Fprintf(stdout, "user %s already exists\n", *email)
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "failed to create user: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "created user %s id=%s\n", user.Email, user.ID)
	return 0
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(stdin io.Reader, prompt io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		return string(b), err
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
