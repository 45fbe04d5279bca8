// hrmctl is a small command-line front end for the HRM API client.
//
// Usage:
//
//	hrmctl login -email admin@corp.test -password secret
//	hrmctl employees
//	hrmctl attendance -date 2026-08-28
//	hrmctl approve -email ann@corp.test -reject
//	hrmctl dashboard
//	hrmctl logout
//
// Configuration comes from the environment (or a .env file):
// HRM_SERVER_URL, HRM_SUPPORT, HRM_CREDENTIALS_PATH, HRM_CREDENTIALS_DSN,
// HRM_TIMEOUT_SECONDS, LOG_LEVEL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ndiyarov/hrmkit/internal/config"
	"github.com/ndiyarov/hrmkit/pkg/apiclient"
	"github.com/ndiyarov/hrmkit/pkg/credstore"
	"github.com/ndiyarov/hrmkit/pkg/hrm"
	"github.com/ndiyarov/hrmkit/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.ServerURL, "HRM_SERVER_URL")

	logger := logging.New(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open credential store: %v", err)
	}

	newClient := hrm.New
	if cfg.Support {
		newClient = hrm.NewSupport
	}
	client := newClient(hrm.Config{
		ServerURL:   cfg.ServerURL,
		Credentials: store,
		Logger:      logger,
		Timeout:     cfg.Timeout,
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, client, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apiclient.ErrorMessage(err))
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (credstore.Store, error) {
	if cfg.CredentialsDSN != "" {
		return credstore.OpenPostgres(cfg.CredentialsDSN)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.CredentialsPath), 0o700); err != nil {
		return nil, err
	}
	return credstore.OpenSQLite(cfg.CredentialsPath)
}

func run(ctx context.Context, client *hrm.Client, command string, args []string) error {
	switch command {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "login email")
		password := fs.String("password", "", "login password")
		_ = fs.Parse(args)
		config.MustNonEmpty(*email, "-email")
		config.MustNonEmpty(*password, "-password")
		if _, err := client.Login(ctx, *email, *password); err != nil {
			return err
		}
		fmt.Println("logged in")
		return nil

	case "logout":
		if err := client.Logout(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "reset-password":
		fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
		email := fs.String("email", "", "login email")
		oldPw := fs.String("old", "", "current password")
		newPw := fs.String("new", "", "new password")
		_ = fs.Parse(args)
		return client.ResetPassword(ctx, *email, *oldPw, *newPw)

	case "company":
		settings, err := client.Company(ctx)
		if err != nil {
			return err
		}
		return printJSON(settings)

	case "departments":
		deps, err := client.Departments(ctx)
		if err != nil {
			return err
		}
		return printJSON(deps)

	case "employees":
		employees, err := client.Employees(ctx)
		if err != nil {
			return err
		}
		return printJSON(employees)

	case "employee":
		fs := flag.NewFlagSet("employee", flag.ExitOnError)
		email := fs.String("email", "", "employee email")
		_ = fs.Parse(args)
		config.MustNonEmpty(*email, "-email")
		emp, err := client.Employee(ctx, *email)
		if err != nil {
			return err
		}
		return printJSON(emp)

	case "attendance":
		fs := flag.NewFlagSet("attendance", flag.ExitOnError)
		date := fs.String("date", "", "YYYY-MM-DD, empty for today")
		_ = fs.Parse(args)
		records, err := client.Attendance(ctx, *date)
		if err != nil {
			return err
		}
		return printJSON(records)

	case "approve":
		fs := flag.NewFlagSet("approve", flag.ExitOnError)
		email := fs.String("email", "", "employee email")
		reject := fs.Bool("reject", false, "reject instead of approve")
		_ = fs.Parse(args)
		config.MustNonEmpty(*email, "-email")
		entry, err := client.ApproveAttendance(ctx, *email, *reject)
		if err != nil {
			return err
		}
		return printJSON(entry)

	case "dashboard":
		stats, err := client.DashboardStats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: hrmctl <command> [flags]

commands:
  login -email E -password P   authenticate and store the token pair
  logout                       clear stored credentials
  reset-password -email E -old O -new N
  company                      show company settings
  departments                  list department names
  employees                    list employees
  employee -email E            show one employee
  attendance [-date D]         attendance view for a date (default today)
  approve -email E [-reject]   approve or reject a pending request
  dashboard                    today's attendance summary`)
}
