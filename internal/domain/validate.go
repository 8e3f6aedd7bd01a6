package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type Rule string

const (
	RuleRequired      Rule = "required"
	RuleEmailFormat   Rule = "email_format"
	RulePhoneFormat   Rule = "phone_format"
	RuleContactFormat Rule = "contact_format"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

// ValidationError names the first rule a record failed. Message is safe to show to the user.
type ValidationError struct {
	Rule    Rule
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// Policy carries the per-deployment differences in required fields.
type Policy struct {
	RequireTime bool
}

// ValidateSubmission checks required fields, then email shape, then phone shape.
func ValidateSubmission(in SubmissionInput, p Policy) (Submission, error) {
	s := Submission{
		Service:   strings.TrimSpace(in.Service),
		Date:      strings.TrimSpace(in.Date),
		Time:      strings.TrimSpace(in.Time),
		FirstName: strings.TrimSpace(in.FirstName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Message:   strings.TrimSpace(in.Message),
	}

	required := map[string]string{
		"service":   s.Service,
		"date":      s.Date,
		"firstName": s.FirstName,
		"phone":     s.Phone,
	}
	if p.RequireTime {
		required["time"] = s.Time
	}
	if missing := missingFields(required, "service", "date", "time", "firstName", "phone"); len(missing) > 0 {
		return Submission{}, &ValidationError{
			Rule:    RuleRequired,
			Fields:  missing,
			Message: "Please fill all required fields (service, date, time, name, phone).",
		}
	}

	if s.Email != "" && !emailPattern.MatchString(s.Email) {
		return Submission{}, &ValidationError{
			Rule:    RuleEmailFormat,
			Fields:  []string{"email"},
			Message: "Invalid email format.",
		}
	}

	if !phonePattern.MatchString(s.Phone) {
		return Submission{}, &ValidationError{
			Rule:    RulePhoneFormat,
			Fields:  []string{"phone"},
			Message: "Invalid phone number format.",
		}
	}

	if s.Email == "" {
		s.Email = EmailNotProvided
	}
	return s, nil
}

// ValidateAdminRecord checks required fields, then the contact number shape.
func ValidateAdminRecord(in AdminRecordInput) (AdminRecord, error) {
	a := AdminRecord{
		Name:        strings.TrimSpace(in.Name),
		RoomNo:      strings.TrimSpace(in.RoomNo),
		Address:     strings.TrimSpace(in.Address),
		Contact:     strings.TrimSpace(in.Contact),
		PaymentMode: strings.TrimSpace(in.PaymentMode),
		TimeIn:      strings.TrimSpace(in.TimeIn),
		TimeOut:     strings.TrimSpace(in.TimeOut),
		TherapyName: strings.TrimSpace(in.TherapyName),
		Duration:    strings.TrimSpace(in.Duration),
		Therapist:   strings.TrimSpace(in.Therapist),
		Date:        strings.TrimSpace(in.Date),
		Membership:  strings.TrimSpace(in.Membership),
	}

	required := map[string]string{
		"name":        a.Name,
		"date":        a.Date,
		"therapyName": a.TherapyName,
	}
	if missing := missingFields(required, "name", "date", "therapyName"); len(missing) > 0 {
		return AdminRecord{}, &ValidationError{
			Rule:    RuleRequired,
			Fields:  missing,
			Message: "Please fill all required fields (name, date, therapyName).",
		}
	}

	if !phonePattern.MatchString(a.Contact) {
		return AdminRecord{}, &ValidationError{
			Rule:    RuleContactFormat,
			Fields:  []string{"contact"},
			Message: "Invalid contact number format.",
		}
	}

	return a, nil
}

// missingFields lists, in order, the keys of required whose value is empty.
func missingFields(required map[string]string, order ...string) []string {
	var missing []string
	for _, name := range order {
		v, ok := required[name]
		if ok && v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
