package domain

import (
	"errors"
	"testing"
	"time"
)

func validInput() SubmissionInput {
	return SubmissionInput{
		Service:   "Thai Massage",
		Date:      "2026-10-20",
		Time:      "14:00",
		FirstName: "Anna",
		Email:     "anna@example.com",
		Phone:     "+1 (555) 123-4567",
		Message:   "first visit",
	}
}

func ruleOf(t *testing.T, err error) Rule {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return ve.Rule
}

func TestValidateSubmission_CheckOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmissionInput)
		want   Rule
	}{
		{"missing phone", func(in *SubmissionInput) { in.Phone = "" }, RuleRequired},
		{"missing phone with bad email", func(in *SubmissionInput) { in.Phone = ""; in.Email = "nope" }, RuleRequired},
		{"whitespace name", func(in *SubmissionInput) { in.FirstName = "   " }, RuleRequired},
		{"missing service", func(in *SubmissionInput) { in.Service = "" }, RuleRequired},
		{"bad email and bad phone", func(in *SubmissionInput) { in.Email = "a@b"; in.Phone = "call me" }, RuleEmailFormat},
		{"bad phone", func(in *SubmissionInput) { in.Phone = "555-CALL" }, RulePhoneFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := ValidateSubmission(in, Policy{})
			if got := ruleOf(t, err); got != tt.want {
				t.Fatalf("rule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateSubmission_RequiredMessage(t *testing.T) {
	in := validInput()
	in.Phone = ""
	_, err := ValidateSubmission(in, Policy{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ve *ValidationError
	errors.As(err, &ve)
	if ve.Message != "Please fill all required fields (service, date, time, name, phone)." {
		t.Fatalf("message = %q", ve.Message)
	}
	if len(ve.Fields) != 1 || ve.Fields[0] != "phone" {
		t.Fatalf("fields = %v", ve.Fields)
	}
}

func TestValidateSubmission_TimePolicy(t *testing.T) {
	in := validInput()
	in.Time = ""

	if _, err := ValidateSubmission(in, Policy{}); err != nil {
		t.Fatalf("time optional by default: %v", err)
	}
	_, err := ValidateSubmission(in, Policy{RequireTime: true})
	if got := ruleOf(t, err); got != RuleRequired {
		t.Fatalf("rule = %s", got)
	}
}

func TestValidateSubmission_Defaults(t *testing.T) {
	in := validInput()
	in.Email = ""
	in.Message = ""

	s, err := ValidateSubmission(in, Policy{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Email != EmailNotProvided {
		t.Fatalf("email = %q", s.Email)
	}
	if s.Message != "" {
		t.Fatalf("message = %q", s.Message)
	}
}

func TestValidateAdminRecord(t *testing.T) {
	base := AdminRecordInput{
		Name:        "Ben",
		Contact:     "0917 555 0101",
		TherapyName: "Hot Stone",
		Date:        "2026-10-16",
	}

	if _, err := ValidateAdminRecord(base); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	missing := base
	missing.TherapyName = ""
	missing.Contact = "not a number"
	if got := ruleOf(t, func() error { _, err := ValidateAdminRecord(missing); return err }()); got != RuleRequired {
		t.Fatalf("rule = %s", got)
	}

	noContact := base
	noContact.Contact = ""
	if got := ruleOf(t, func() error { _, err := ValidateAdminRecord(noContact); return err }()); got != RuleContactFormat {
		t.Fatalf("rule = %s", got)
	}
}

func TestSubmissionRowRoundTrip(t *testing.T) {
	in := validInput()
	in.Email = ""
	s, err := ValidateSubmission(in, Policy{})
	if err != nil {
		t.Fatal(err)
	}
	s.Timestamp = FormatTimestamp(time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC))

	back := SubmissionFromRow(s.Row())
	if back != s {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, s)
	}
	if back.Email != EmailNotProvided {
		t.Fatalf("sentinel lost: %q", back.Email)
	}
}

func TestAdminRecordRowRoundTrip(t *testing.T) {
	a := AdminRecord{
		Timestamp: "2026-10-16T09:30:00.000Z", Name: "Ben", RoomNo: "12", Address: "Main St",
		Contact: "0917", PaymentMode: "cash", TimeIn: "09:00", TimeOut: "10:00",
		TherapyName: "Hot Stone", Duration: "60", Therapist: "Mai", Date: "2026-10-16", Membership: "gold",
	}
	if got := AdminRecordFromRow(a.Row()); got != a {
		t.Fatalf("got %+v", got)
	}
}

func TestSubmissionFromRow_ShortRow(t *testing.T) {
	s := SubmissionFromRow([]string{"2026-10-16T09:30:00.000Z", "Facial"})
	if s.Service != "Facial" || s.Message != "" || s.Phone != "" {
		t.Fatalf("got %+v", s)
	}
}

func TestParseTimestamp(t *testing.T) {
	ts := FormatTimestamp(time.Date(2026, 10, 16, 23, 59, 59, 0, time.FixedZone("x", 3600)))
	if ts != "2026-10-16T22:59:59.000Z" {
		t.Fatalf("format = %q", ts)
	}
	got, ok := ParseTimestamp(ts)
	if !ok || CalendarDay(got) != "2026-10-16" {
		t.Fatalf("parse = %v %v", got, ok)
	}
	if _, ok := ParseTimestamp("yesterday"); ok {
		t.Fatal("garbage must not parse")
	}
	if _, ok := ParseTimestamp(""); ok {
		t.Fatal("empty must not parse")
	}
}
