package hrm

// Credentials is the token pair returned by login.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LegalDetails struct {
	RegistrationNumber string `json:"registrationNumber"`
	TaxID              string `json:"taxId"`
	CompanyType        string `json:"companyType"`
}

// CompanySettings is the single per-tenant configuration record. The
// two times-of-day are stored as UTC "HH:MM:SS"; use LocalToUTC and
// UTCToLocal to convert for display.
type CompanySettings struct {
	Name              string       `json:"name"`
	Email             string       `json:"email"`
	About             string       `json:"about"`
	IncorporationDate string       `json:"dateOfIncorporation"`
	Departments       []string     `json:"departments"`
	LastCheckIn       string       `json:"lastCheckIn"`
	EarliestCheckOut  string       `json:"earliestCheckOut"`
	Legal             LegalDetails `json:"legalDetails"`
}

type EmployeeDetails struct {
	Salary      float64 `json:"salary"`
	NationalID  string  `json:"nationalId"`
	BankAccount string  `json:"bankAccount"`
	RoutingCode string  `json:"routingCode"`
}

// Employee is keyed by email; the email is immutable once created.
type Employee struct {
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	Mobile        string          `json:"mobile"`
	DateOfBirth   string          `json:"dateOfBirth"`
	DateOfJoining string          `json:"dateOfJoining"`
	Department    string          `json:"department"`
	Details       EmployeeDetails `json:"details"`
}

// AttendanceEntry is the backend wire shape, keyed by employee email
// and date. Clock fields are "HH:MM:SS" strings and may be empty when
// the employee has not checked in or out yet.
type AttendanceEntry struct {
	EmployeeEmail    string  `json:"employeeEmail"`
	AttendanceDate   string  `json:"attendanceDate"`
	CheckIn          string  `json:"checkIn"`
	CheckOut         string  `json:"checkOut"`
	AttendanceStatus string  `json:"attendanceStatus"`
	OTHours          float64 `json:"otHours"`
	Notes            string  `json:"notes,omitempty"`
}

// AttendanceRecord is the derived view model. ID is synthesized from
// the employee email and the date.
type AttendanceRecord struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	Date         string
	CheckIn      string
	CheckOut     string
	WorkingHours float64
	Status       Status
	Late         bool
	Notes        string
}

// DashboardStats aggregates today's attendance for the landing page.
type DashboardStats struct {
	TotalEmployees int
	CheckedIn      int
	Late           int
	NotMarked      int
}
