package domain

import (
	"strings"
	"time"
)

// EmailNotProvided is stored in the email column when a booking omits it.
const EmailNotProvided = "N/A"

// TimestampLayout is the server timestamp format written to the first column of every row.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Submission is a public booking request.
type Submission struct {
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// SubmissionInput is the raw body of POST /api/submit.
type SubmissionInput struct {
	Service   string `json:"service"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// AdminRecord is a front-desk visit entered from the admin panel.
type AdminRecord struct {
	Timestamp   string `json:"timestamp"`
	Name        string `json:"name"`
	RoomNo      string `json:"roomNo"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	PaymentMode string `json:"paymentMode"`
	TimeIn      string `json:"timeIn"`
	TimeOut     string `json:"timeOut"`
	TherapyName string `json:"therapyName"`
	Duration    string `json:"duration"`
	Therapist   string `json:"therapist"`
	Date        string `json:"date"`
	Membership  string `json:"membership"`
}

// AdminRecordInput is the raw body of POST /api/admin/submit.
type AdminRecordInput struct {
	Name        string `json:"name"`
	RoomNo      string `json:"roomNo"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	PaymentMode string `json:"paymentMode"`
	TimeIn      string `json:"timeIn"`
	TimeOut     string `json:"timeOut"`
	TherapyName string `json:"therapyName"`
	Duration    string `json:"duration"`
	Therapist   string `json:"therapist"`
	Date        string `json:"date"`
	Membership  string `json:"membership"`
}

// PublicHeader is the column layout of the public bookings table.
var PublicHeader = []string{
	"Timestamp", "Service", "Date", "Time", "First Name", "Email", "Phone", "Message",
}

// AdminHeader is the column layout of the admin visits table.
var AdminHeader = []string{
	"Timestamp", "Name", "Room No", "Address", "Contact", "Payment Mode", "Time In",
	"Time Out", "Therapy Name", "Duration", "Therapist", "Date", "Membership",
}

// Row returns the submission in public table column order.
func (s Submission) Row() []string {
	return []string{s.Timestamp, s.Service, s.Date, s.Time, s.FirstName, s.Email, s.Phone, s.Message}
}

// SubmissionFromRow reads a public table row back positionally. Missing trailing cells are empty.
func SubmissionFromRow(row []string) Submission {
	c := cells(row, len(PublicHeader))
	return Submission{
		Timestamp: c[0],
		Service:   c[1],
		Date:      c[2],
		Time:      c[3],
		FirstName: c[4],
		Email:     c[5],
		Phone:     c[6],
		Message:   c[7],
	}
}

// Row returns the record in admin table column order.
func (a AdminRecord) Row() []string {
	return []string{
		a.Timestamp, a.Name, a.RoomNo, a.Address, a.Contact, a.PaymentMode, a.TimeIn,
		a.TimeOut, a.TherapyName, a.Duration, a.Therapist, a.Date, a.Membership,
	}
}

// AdminRecordFromRow reads an admin table row, treating missing trailing cells as empty.
func AdminRecordFromRow(row []string) AdminRecord {
	c := cells(row, len(AdminHeader))
	return AdminRecord{
		Timestamp:   c[0],
		Name:        c[1],
		RoomNo:      c[2],
		Address:     c[3],
		Contact:     c[4],
		PaymentMode: c[5],
		TimeIn:      c[6],
		TimeOut:     c[7],
		TherapyName: c[8],
		Duration:    c[9],
		Therapist:   c[10],
		Date:        c[11],
		Membership:  c[12],
	}
}

// cells pads or truncates row to exactly n cells.
func cells(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts the server layout plus the shapes a spreadsheet may re-render it as.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CalendarDay is the YYYY-MM-DD of t in UTC, the convention timestamps are written in.
func CalendarDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
