// Package hrm is the typed client for the HRM REST API: authentication,
// company settings, employees, attendance and dashboard aggregation.
// All calls go through the authenticated access layer in pkg/apiclient.
package hrm

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/ndiyarov/hrmkit/pkg/apiclient"
	"github.com/ndiyarov/hrmkit/pkg/credstore"
)

const (
	companyBasePath = "/v1/cmp"
	supportBasePath = "/v1/support"
)

type Config struct {
	// ServerURL is the API server root, without the tenant base path.
	ServerURL   string
	Credentials credstore.Store
	Logger      *slog.Logger
	Timeout     time.Duration
	// OnSessionExpired fires after an unrecoverable authorization
	// failure has cleared the stored credentials.
	OnSessionExpired func()
}

type Client struct {
	api   *apiclient.Client
	creds credstore.Store
	log   *slog.Logger
}

// New returns a client for the company-admin API (/v1/cmp).
func New(cfg Config) *Client {
	return newClient(cfg, companyBasePath)
}

// NewSupport returns a client for the support/back-office API
// (/v1/support).
func NewSupport(cfg Config) *Client {
	return newClient(cfg, supportBasePath)
}

func newClient(cfg Config, basePath string) *Client {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	api := apiclient.New(apiclient.Options{
		BaseURL:          cfg.ServerURL + basePath,
		Credentials:      cfg.Credentials,
		Logger:           log,
		Timeout:          cfg.Timeout,
		OnSessionExpired: cfg.OnSessionExpired,
	})
	return &Client{api: api, creds: cfg.Credentials, log: log}
}

// Login authenticates with email and password and stores the returned
// token pair, making every subsequent call authenticated.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.api.Post(ctx, "/login", nil, body, &creds); err != nil {
		return Credentials{}, err
	}
	if err := c.creds.Set(credstore.Pair{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}); err != nil {
		return Credentials{}, fmt.Errorf("store credentials: %w", err)
	}
	c.log.Info("logged in", "email", email)
	return creds, nil
}

// Logout clears the stored credentials. The API has no logout endpoint;
// the session simply stops being presented.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

func (c *Client) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	body := map[string]string{
		"email":       email,
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}
	return c.api.Post(ctx, "/password/reset", nil, body, nil)
}

func (c *Client) Company(ctx context.Context) (CompanySettings, error) {
	var out CompanySettings
	if err := c.api.Get(ctx, "/", nil, &out); err != nil {
		return CompanySettings{}, err
	}
	return out, nil
}

func (c *Client) UpdateCompany(ctx context.Context, settings CompanySettings) (CompanySettings, error) {
	var out CompanySettings
	if err := c.api.Put(ctx, "/", nil, settings, &out); err != nil {
		return CompanySettings{}, err
	}
	return out, nil
}

func (c *Client) Departments(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.api.Get(ctx, "/deps", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var out []Employee
	if err := c.api.Get(ctx, "/emp", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Employee(ctx context.Context, email string) (Employee, error) {
	var out Employee
	if err := c.api.Get(ctx, "/emp/"+url.PathEscape(email), nil, &out); err != nil {
		return Employee{}, err
	}
	return out, nil
}

func (c *Client) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	var out Employee
	if err := c.api.Post(ctx, "/emp", nil, emp, &out); err != nil {
		return Employee{}, err
	}
	return out, nil
}

// UpdateEmployee updates the employee addressed by email. The email is
// the identifier and cannot be changed by an update.
func (c *Client) UpdateEmployee(ctx context.Context, email string, emp Employee) (Employee, error) {
	var out Employee
	if err := c.api.Put(ctx, "/emp/"+url.PathEscape(email), nil, emp, &out); err != nil {
		return Employee{}, err
	}
	return out, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, email string) error {
	return c.api.Delete(ctx, "/emp/"+url.PathEscape(email))
}

// DashboardStats aggregates today's attendance across all employees.
// Employees with no entry for today count as not marked.
func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	employees, err := c.Employees(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	records, err := c.Attendance(ctx, "")
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{TotalEmployees: len(employees)}
	marked := make(map[string]bool, len(records))
	for _, r := range records {
		switch r.Status {
		case StatusNotMarked, StatusAbsent:
		default:
			stats.CheckedIn++
			marked[r.EmployeeID] = true
		}
		if r.Late {
			stats.Late++
		}
	}
	for _, e := range employees {
		if !marked[e.Email] {
			stats.NotMarked++
		}
	}
	return stats, nil
}
