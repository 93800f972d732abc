// Command bootstrap creates the initial SUPER_ADMIN account. It is meant to
// be run once against a fresh database, before the first dashboard login.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/lakelandsports/cms/internal/logging"
	"github.com/lakelandsports/cms/internal/server/config"
	"github.com/lakelandsports/cms/internal/server/mailer"
	"github.com/lakelandsports/cms/internal/server/repositories/repomanager"
	"github.com/lakelandsports/cms/internal/server/services"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	manager, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	db := manager.Conn()
	defer db.Close()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	accounts := services.NewAccountService(db, manager, mailer.NewLogMailer(logger), logger, cfg)

	reader := bufio.NewReader(os.Stdin)

	name, err := prompt(reader, "Name: ")
	if err != nil {
		log.Fatalf("%v", err)
	}
	email, err := prompt(reader, "Email: ")
	if err != nil {
		log.Fatalf("%v", err)
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		log.Fatalf("%v", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		log.Fatalf("%v", err)
	}
	if password != confirm {
		log.Fatal("passwords do not match")
	}

	account, err := accounts.CreateSuperAdmin(ctx, name, email, password)
	if err != nil {
		log.Fatalf("creating account: %v", err)
	}

	fmt.Printf("created SUPER_ADMIN %s (%s)\n", account.Email, account.ID)
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("value is required")
	}
	return value, nil
}

// promptPassword reads without echo so the password never lands in the
// terminal scrollback.
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
