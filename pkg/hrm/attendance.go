package hrm

import (
	"context"
	"net/url"
)

// The backend spells the resource "attendence"; that misspelling is the
// wire contract.
const attendancePath = "/attendence"

// Attendance returns the derived attendance view for an optional
// YYYY-MM-DD date (empty means today). Entries are joined against the
// employee list for display names and against the company settings for
// lateness.
func (c *Client) Attendance(ctx context.Context, date string) ([]AttendanceRecord, error) {
	entries, err := c.attendanceEntries(ctx, date)
	if err != nil {
		return nil, err
	}
	employees, err := c.Employees(ctx)
	if err != nil {
		return nil, err
	}
	company, err := c.Company(ctx)
	if err != nil {
		return nil, err
	}
	records := BuildRecords(entries, employees, company.LastCheckIn)
	c.log.Debug("attendance view built", "date", date, "entries", len(entries), "records", len(records))
	return records, nil
}

func (c *Client) attendanceEntries(ctx context.Context, date string) ([]AttendanceEntry, error) {
	var query url.Values
	if date != "" {
		query = url.Values{"date": {date}}
	}
	var out []AttendanceEntry
	if err := c.api.Get(ctx, attendancePath, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmployeeAttendance returns the raw backend entry for one employee.
func (c *Client) EmployeeAttendance(ctx context.Context, email string) (AttendanceEntry, error) {
	var out AttendanceEntry
	if err := c.api.Get(ctx, attendancePath+"/"+url.PathEscape(email), nil, &out); err != nil {
		return AttendanceEntry{}, err
	}
	return out, nil
}

// UpdateAttendance replaces an employee's entry for an optional date
// (empty means today).
func (c *Client) UpdateAttendance(ctx context.Context, email, date string, entry AttendanceEntry) (AttendanceEntry, error) {
	var query url.Values
	if date != "" {
		query = url.Values{"date": {date}}
	}
	var out AttendanceEntry
	if err := c.api.Put(ctx, attendancePath+"/"+url.PathEscape(email), query, entry, &out); err != nil {
		return AttendanceEntry{}, err
	}
	return out, nil
}

// ApproveAttendance approves (or, with reject set, rejects) a pending
// check-in/check-out request.
func (c *Client) ApproveAttendance(ctx context.Context, email string, reject bool) (AttendanceEntry, error) {
	var query url.Values
	if reject {
		query = url.Values{"reject": {"true"}}
	}
	var out AttendanceEntry
	if err := c.api.Post(ctx, attendancePath+"/approve/"+url.PathEscape(email), query, nil, &out); err != nil {
		return AttendanceEntry{}, err
	}
	return out, nil
}

// BuildRecords maps backend entries onto view records: names joined on
// email (the email itself when no employee matches), status mapped with
// a not-marked default, hours and lateness derived. It never fails;
// malformed fields resolve to safe defaults.
func BuildRecords(entries []AttendanceEntry, employees []Employee, lastAllowedCheckIn string) []AttendanceRecord {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.Email] = e.Name
	}

	records := make([]AttendanceRecord, 0, len(entries))
	for _, entry := range entries {
		name, ok := names[entry.EmployeeEmail]
		if !ok || name == "" {
			name = entry.EmployeeEmail
		}
		records = append(records, AttendanceRecord{
			ID:           entry.EmployeeEmail + entry.AttendanceDate,
			EmployeeID:   entry.EmployeeEmail,
			EmployeeName: name,
			Date:         entry.AttendanceDate,
			CheckIn:      entry.CheckIn,
			CheckOut:     entry.CheckOut,
			WorkingHours: DeriveHours(entry.CheckIn, entry.CheckOut, entry.OTHours),
			Status:       MapStatus(entry.AttendanceStatus),
			Late:         IsLate(entry.CheckIn, lastAllowedCheckIn),
			Notes:        entry.Notes,
		})
	}
	return records
}
