// Package hrmtest runs an in-process fake of the HRM backend for
// client tests: real HS256 token pairs, bcrypt-checked passwords and
// the full endpoint surface, plus switches to force authorization
// failures on demand.
package hrmtest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndiyarov/hrmkit/pkg/hrm"
)

type Server struct {
	srv  *httptest.Server
	echo *echo.Echo

	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration

	mu          sync.Mutex
	users       map[string][]byte // email -> bcrypt hash
	company     hrm.CompanySettings
	employees   map[string]hrm.Employee
	attendance  map[string]hrm.AttendanceEntry // email|date
	forceExpire int

	refreshCalls int32
}

func New() *Server {
	s := &Server{
		accessSecret:  []byte("hrmtest-access-" + uuid.NewString()),
		refreshSecret: []byte("hrmtest-refresh-" + uuid.NewString()),
		accessTTL:     15 * time.Minute,
		users:         make(map[string][]byte),
		employees:     make(map[string]hrm.Employee),
		attendance:    make(map[string]hrm.AttendanceEntry),
		company: hrm.CompanySettings{
			Name:        "Test Company",
			LastCheckIn: "09:30:00",
		},
	}

	e := echo.New()
	e.HideBanner = true
	for _, base := range []string{"/v1/cmp", "/v1/support"} {
		g := e.Group(base)
		g.POST("/login", s.login)
		g.POST("/refresh", s.refreshHandler)

		private := g.Group("", s.requireAuth)
		private.POST("/password/reset", s.resetPassword)
		private.GET("/", s.getCompany)
		private.PUT("/", s.updateCompany)
		private.GET("/deps", s.departments)
		private.GET("/emp", s.listEmployees)
		private.POST("/emp", s.createEmployee)
		private.GET("/emp/:email", s.getEmployee)
		private.PUT("/emp/:email", s.updateEmployee)
		private.DELETE("/emp/:email", s.deleteEmployee)
		private.GET("/attendence", s.listAttendance)
		private.GET("/attendence/:email", s.getAttendance)
		private.PUT("/attendence/:email", s.updateAttendance)
		private.POST("/attendence/approve/:email", s.approveAttendance)
	}

	s.echo = e
	s.srv = httptest.NewServer(e)
	return s
}

// URL returns the server root; clients append /v1/cmp or /v1/support.
func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// AddUser registers a login with a bcrypt-hashed password.
func (s *Server) AddUser(email, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = hash
}

func (s *Server) SetCompany(c hrm.CompanySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.company = c
}

func (s *Server) SeedEmployee(e hrm.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.Email] = e
}

func (s *Server) SeedAttendance(entry hrm.AttendanceEntry) {
	if entry.AttendanceDate == "" {
		entry.AttendanceDate = today()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[entry.EmployeeEmail+"|"+entry.AttendanceDate] = entry
}

// ExpireAccessNext makes the next n authenticated requests fail with
// 401 regardless of token validity, simulating access-token expiry.
func (s *Server) ExpireAccessNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceExpire = n
}

// RefreshCalls reports how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int {
	return int(atomic.LoadInt32(&s.refreshCalls))
}

func today() string { return time.Now().UTC().Format("2006-01-02") }

// tokens ------------------------------------------------------------------

func (s *Server) mintAccess(email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) mintRefresh(email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		panic(err)
	}
	return tok
}

func parseSubject(tokenStr string, secret []byte) (string, error) {
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

func bearer(c echo.Context) string {
	return strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
}

// auth ---------------------------------------------------------------------

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	s.mu.Lock()
	hash, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"details": []string{"Invalid Password!"}})
	}

	return c.JSON(http.StatusOK, hrm.Credentials{
		AccessToken:  s.mintAccess(req.Email),
		RefreshToken: s.mintRefresh(req.Email),
	})
}

func (s *Server) refreshHandler(c echo.Context) error {
	atomic.AddInt32(&s.refreshCalls, 1)

	email, err := parseSubject(bearer(c), s.refreshSecret)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "refresh token invalid"})
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": s.mintAccess(email)})
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		expire := s.forceExpire > 0
		if expire {
			s.forceExpire--
		}
		s.mu.Unlock()
		if expire {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "token expired"})
		}

		email, err := parseSubject(bearer(c), s.accessSecret)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid access token"})
		}
		c.Set("email", email)
		return next(c)
	}
}

func (s *Server) resetPassword(c echo.Context) error {
	var req struct {
		Email       string `json:"email"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.users[req.Email]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(req.OldPassword)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"details": []string{"Invalid Password!"}})
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "hash failure"})
	}
	s.users[req.Email] = newHash
	return c.NoContent(http.StatusOK)
}

// company ------------------------------------------------------------------

func (s *Server) getCompany(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.company)
}

func (s *Server) updateCompany(c echo.Context) error {
	var settings hrm.CompanySettings
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	s.mu.Lock()
	s.company = settings
	s.mu.Unlock()
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) departments(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deps := s.company.Departments
	if deps == nil {
		deps = []string{}
	}
	return c.JSON(http.StatusOK, deps)
}

// employees ----------------------------------------------------------------

func (s *Server) listEmployees(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]hrm.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getEmployee(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[c.Param("email")]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "employee not found"})
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) createEmployee(c echo.Context) error {
	var e hrm.Employee
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[e.Email]; exists {
		return c.JSON(http.StatusConflict, echo.Map{"details": []string{"employee already exists"}})
	}
	s.employees[e.Email] = e
	return c.JSON(http.StatusOK, e)
}

func (s *Server) updateEmployee(c echo.Context) error {
	var e hrm.Employee
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	email := c.Param("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[email]; !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "employee not found"})
	}
	e.Email = email // the identifier is immutable
	s.employees[email] = e
	return c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEmployee(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.employees, c.Param("email"))
	return c.NoContent(http.StatusOK)
}

// attendance ---------------------------------------------------------------

func (s *Server) listAttendance(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = today()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]hrm.AttendanceEntry, 0)
	for _, entry := range s.attendance {
		if entry.AttendanceDate == date {
			out = append(out, entry)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getAttendance(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.attendance[c.Param("email")+"|"+today()]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "attendance not found"})
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) updateAttendance(c echo.Context) error {
	var entry hrm.AttendanceEntry
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	date := c.QueryParam("date")
	if date == "" {
		date = today()
	}
	entry.EmployeeEmail = c.Param("email")
	entry.AttendanceDate = date
	s.mu.Lock()
	s.attendance[entry.EmployeeEmail+"|"+date] = entry
	s.mu.Unlock()
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) approveAttendance(c echo.Context) error {
	reject := c.QueryParam("reject") == "true"
	key := c.Param("email") + "|" + today()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.attendance[key]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "attendance not found"})
	}
	switch entry.AttendanceStatus {
	case "CHECK_IN_REQUESTED":
		if reject {
			entry.AttendanceStatus = "CHECK_IN_REJECTED"
		} else {
			entry.AttendanceStatus = "CHECKED_IN"
		}
	case "CHECK_OUT_REQUESTED":
		if reject {
			entry.AttendanceStatus = "CHECK_OUT_REJECTED"
		} else {
			entry.AttendanceStatus = "CHECKED_OUT"
		}
	default:
		return c.JSON(http.StatusConflict, echo.Map{"message": "nothing to approve"})
	}
	s.attendance[key] = entry
	return c.JSON(http.StatusOK, entry)
}
