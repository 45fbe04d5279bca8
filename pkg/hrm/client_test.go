package hrm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndiyarov/hrmkit/pkg/apiclient"
	"github.com/ndiyarov/hrmkit/pkg/credstore"
	"github.com/ndiyarov/hrmkit/pkg/hrm"
	"github.com/ndiyarov/hrmkit/pkg/hrmtest"
)

type env struct {
	backend *hrmtest.Server
	store   *credstore.Memory
	client  *hrm.Client
	expired *bool
}

func newEnv(t *testing.T) *env {
	t.Helper()

	backend := hrmtest.New()
	t.Cleanup(backend.Close)
	backend.AddUser("admin@corp.test", "Secret123")

	store := credstore.NewMemory()
	expired := false
	client := hrm.New(hrm.Config{
		ServerURL:        backend.URL(),
		Credentials:      store,
		OnSessionExpired: func() { expired = true },
	})
	return &env{backend: backend, store: store, client: client, expired: &expired}
}

func (e *env) login(t *testing.T) {
	t.Helper()
	_, err := e.client.Login(context.Background(), "admin@corp.test", "Secret123")
	require.NoError(t, err)
}

func TestClient_Login_StoresBothTokens(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	creds, err := e.client.Login(context.Background(), "admin@corp.test", "Secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)

	pair, ok := e.store.Get()
	require.True(t, ok)
	assert.Equal(t, creds.AccessToken, pair.AccessToken)
	assert.Equal(t, creds.RefreshToken, pair.RefreshToken)
}

func TestClient_Login_InvalidPassword(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	_, err := e.client.Login(context.Background(), "admin@corp.test", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid Password!", apiclient.ErrorMessage(err))

	_, ok := e.store.Get()
	assert.False(t, ok, "failed login stores nothing")
}

// The core contract: an expired access token with a valid refresh token
// is invisible to the caller, who observes only the final payload.
func TestClient_ExpiredAccess_TransparentRefresh(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	e.backend.SeedEmployee(hrm.Employee{Email: "ann@corp.test", Name: "Ann Lee"})

	e.backend.ExpireAccessNext(1)

	employees, err := e.client.Employees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Ann Lee", employees[0].Name)

	assert.Equal(t, 1, e.backend.RefreshCalls())
	assert.False(t, *e.expired)
}

func TestClient_RefreshImpossible_SessionExpires(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)

	// Corrupt the stored refresh token so the refresh call fails.
	pair, ok := e.store.Get()
	require.True(t, ok)
	pair.RefreshToken = "garbage"
	require.NoError(t, e.store.Set(pair))

	e.backend.ExpireAccessNext(1)

	_, err := e.client.Employees(context.Background())
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)
	assert.True(t, *e.expired)

	_, ok = e.store.Get()
	assert.False(t, ok, "no dangling partial state")
}

func TestClient_EmployeeLifecycle(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	emp := hrm.Employee{
		Email:         "bob@corp.test",
		Name:          "Bob Roy",
		Mobile:        "+15550100",
		DateOfBirth:   "1990-04-01",
		DateOfJoining: "2024-01-15",
		Department:    "Engineering",
		Details: hrm.EmployeeDetails{
			Salary:      120000,
			NationalID:  "AB1234567",
			BankAccount: "000123456789",
			RoutingCode: "110000000",
		},
	}

	created, err := e.client.CreateEmployee(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, emp, created)

	_, err = e.client.CreateEmployee(ctx, emp)
	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)

	got, err := e.client.Employee(ctx, "bob@corp.test")
	require.NoError(t, err)
	assert.Equal(t, "Bob Roy", got.Name)

	got.Department = "Platform"
	updated, err := e.client.UpdateEmployee(ctx, "bob@corp.test", got)
	require.NoError(t, err)
	assert.Equal(t, "Platform", updated.Department)
	assert.Equal(t, "bob@corp.test", updated.Email, "email never changes on update")

	require.NoError(t, e.client.DeleteEmployee(ctx, "bob@corp.test"))
	_, err = e.client.Employee(ctx, "bob@corp.test")
	require.Error(t, err)
}

func TestClient_CompanyAndDepartments(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	settings, err := e.client.Company(ctx)
	require.NoError(t, err)
	settings.Name = "Acme GmbH"
	settings.Departments = []string{"Engineering", "Sales"}
	settings.LastCheckIn = "09:00:00"
	settings.EarliestCheckOut = "17:00:00"
	settings.Legal = hrm.LegalDetails{RegistrationNumber: "HRB 1234", TaxID: "DE999", CompanyType: "GmbH"}

	updated, err := e.client.UpdateCompany(ctx, settings)
	require.NoError(t, err)
	assert.Equal(t, settings, updated)

	deps, err := e.client.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineering", "Sales"}, deps)
}

func TestClient_AttendanceFlow(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	e.backend.SeedEmployee(hrm.Employee{Email: "ann@corp.test", Name: "Ann Lee"})
	e.backend.SeedAttendance(hrm.AttendanceEntry{
		EmployeeEmail:    "ann@corp.test",
		CheckIn:          "09:45:00",
		AttendanceStatus: "CHECK_IN_REQUESTED",
	})

	records, err := e.client.Attendance(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ann Lee", records[0].EmployeeName)
	assert.Equal(t, hrm.StatusCheckInRequested, records[0].Status)
	assert.True(t, records[0].Late, "09:45 is after the default 09:30 cut-off")

	approved, err := e.client.ApproveAttendance(ctx, "ann@corp.test", false)
	require.NoError(t, err)
	assert.Equal(t, "CHECKED_IN", approved.AttendanceStatus)

	entry, err := e.client.EmployeeAttendance(ctx, "ann@corp.test")
	require.NoError(t, err)
	entry.CheckOut = "18:00:00"
	entry.AttendanceStatus = "CHECKED_OUT"
	updated, err := e.client.UpdateAttendance(ctx, "ann@corp.test", "", entry)
	require.NoError(t, err)
	assert.Equal(t, "18:00:00", updated.CheckOut)

	records, err = e.client.Attendance(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, hrm.StatusCheckedOut, records[0].Status)
	assert.InDelta(t, 8.25, records[0].WorkingHours, 1e-9)
}

func TestClient_DashboardStats(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	e.backend.SeedEmployee(hrm.Employee{Email: "ann@corp.test", Name: "Ann Lee"})
	e.backend.SeedEmployee(hrm.Employee{Email: "bob@corp.test", Name: "Bob Roy"})
	e.backend.SeedEmployee(hrm.Employee{Email: "eve@corp.test", Name: "Eve Kim"})
	e.backend.SeedAttendance(hrm.AttendanceEntry{
		EmployeeEmail:    "ann@corp.test",
		CheckIn:          "09:00:00",
		AttendanceStatus: "CHECKED_IN",
	})
	e.backend.SeedAttendance(hrm.AttendanceEntry{
		EmployeeEmail:    "bob@corp.test",
		CheckIn:          "10:05:00",
		AttendanceStatus: "CHECKED_IN",
	})

	stats, err := e.client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, hrm.DashboardStats{
		TotalEmployees: 3,
		CheckedIn:      2,
		Late:           1,
		NotMarked:      1,
	}, stats)
}

func TestClient_ResetPassword(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	require.NoError(t, e.client.ResetPassword(ctx, "admin@corp.test", "Secret123", "Newer456"))
	require.NoError(t, e.client.Logout())

	_, err := e.client.Login(ctx, "admin@corp.test", "Secret123")
	require.Error(t, err)
	_, err = e.client.Login(ctx, "admin@corp.test", "Newer456")
	require.NoError(t, err)
}

func TestSupportClient_UsesSupportBase(t *testing.T) {
	t.Parallel()

	backend := hrmtest.New()
	t.Cleanup(backend.Close)
	backend.AddUser("ops@corp.test", "Secret123")

	client := hrm.NewSupport(hrm.Config{
		ServerURL:   backend.URL(),
		Credentials: credstore.NewMemory(),
	})

	_, err := client.Login(context.Background(), "ops@corp.test", "Secret123")
	require.NoError(t, err)

	_, err = client.Company(context.Background())
	require.NoError(t, err)
}
