package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/platform/mailer"
)

type field struct {
	Label string
	Value string
	// Href is trusted as a URL so tel: links survive html/template's scheme filter.
	Href htmltemplate.URL
}

type emailView struct {
	Site      string
	Title     string
	Submitted string
	Fields    []field
	Footer    string
}

var htmlEmail = htmltemplate.Must(htmltemplate.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9; border-radius: 8px; }
  .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
  .content { background-color: white; padding: 20px; border-radius: 0 0 8px 8px; }
  .field { margin-bottom: 15px; }
  .label { font-weight: bold; color: #555; }
  .value { margin-top: 5px; padding: 10px; background-color: #f5f5f5; border-left: 3px solid #4CAF50; }
  .footer { margin-top: 20px; padding-top: 20px; border-top: 1px solid #ddd; text-align: center; color: #777; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>{{.Title}}</h1></div>
  <div class="content">
    <p><strong>Submission Time:</strong> {{.Submitted}}</p>
    {{- range .Fields}}
    <div class="field">
      <div class="label">{{.Label}}:</div>
      <div class="value">{{if .Href}}<a href="{{.Href}}">{{.Value}}</a>{{else}}{{.Value}}{{end}}</div>
    </div>
    {{- end}}
    <div class="footer">
      <p>This is an automated notification from {{.Site}} booking system.</p>
      <p>{{.Footer}}</p>
    </div>
  </div>
</div>
</body>
</html>
`))

var textEmail = texttemplate.Must(texttemplate.New("email").Parse(`{{.Title}}

Submission Time: {{.Submitted}}

{{range .Fields}}{{.Label}}: {{.Value}}
{{end}}
---
This is an automated notification from {{.Site}} booking system.
`))

func (n *Notifier) render(subject string, v emailView) (mailer.Message, error) {
	var html, text bytes.Buffer
	if err := htmlEmail.Execute(&html, v); err != nil {
		return mailer.Message{}, fmt.Errorf("render html email: %w", err)
	}
	if err := textEmail.Execute(&text, v); err != nil {
		return mailer.Message{}, fmt.Errorf("render text email: %w", err)
	}
	return mailer.Message{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func (n *Notifier) submittedAt(ts string) string {
	t, ok := domain.ParseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.In(n.cfg.Location).Format("Monday, January 2, 2006 at 3:04 PM")
}

// BookingSubject is the subject line of a booking email.
func BookingSubject(s domain.Submission) string {
	return fmt.Sprintf("🎉 New Booking: %s - %s", s.Service, s.FirstName)
}

func (n *Notifier) bookingEmail(s domain.Submission) (mailer.Message, error) {
	fields := []field{
		{Label: "📋 Service", Value: s.Service},
		{Label: "📅 Appointment Date", Value: s.Date},
		{Label: "🕐 Appointment Time", Value: s.Time},
		{Label: "👤 Customer Name", Value: s.FirstName},
		{Label: "📧 Email", Value: s.Email},
		{Label: "📞 Phone", Value: s.Phone, Href: htmltemplate.URL("tel:" + s.Phone)},
	}
	if s.Email != domain.EmailNotProvided {
		fields[4].Href = htmltemplate.URL("mailto:" + s.Email)
	}
	if s.Message != "" {
		fields = append(fields, field{Label: "💬 Message", Value: s.Message})
	}
	return n.render(BookingSubject(s), emailView{
		Site:      n.cfg.SiteName,
		Title:     "🎉 New Spa Booking Received!",
		Submitted: n.submittedAt(s.Timestamp),
		Fields:    fields,
		Footer:    "Please respond to the customer as soon as possible.",
	})
}

// VisitSubject is the subject line of a front-desk visit email.
func VisitSubject(a domain.AdminRecord) string {
	return fmt.Sprintf("📝 New Visit: %s - %s", a.TherapyName, a.Name)
}

func (n *Notifier) visitEmail(a domain.AdminRecord) (mailer.Message, error) {
	fields := []field{
		{Label: "Name", Value: a.Name},
		{Label: "Room No", Value: a.RoomNo},
		{Label: "Address", Value: a.Address},
		{Label: "Contact", Value: a.Contact, Href: htmltemplate.URL("tel:" + a.Contact)},
		{Label: "Payment Mode", Value: a.PaymentMode},
		{Label: "Time In", Value: a.TimeIn},
		{Label: "Time Out", Value: a.TimeOut},
		{Label: "Therapy", Value: a.TherapyName},
		{Label: "Duration", Value: a.Duration},
		{Label: "Therapist", Value: a.Therapist},
		{Label: "Date", Value: a.Date},
		{Label: "Membership", Value: a.Membership},
	}
	return n.render(VisitSubject(a), emailView{
		Site:      n.cfg.SiteName,
		Title:     "📝 Front Desk Visit Recorded",
		Submitted: n.submittedAt(a.Timestamp),
		Fields:    fields,
		Footer:    "Entered from the admin panel.",
	})
}

// BookingAlert is the single WhatsApp template parameter summarising a booking.
func BookingAlert(s domain.Submission) string {
	msg := s.Message
	if msg == "" {
		msg = "No message"
	}
	lines := []string{
		"👤 Name: " + s.FirstName,
		"📞 Phone: " + s.Phone,
		"🛠 Service: " + s.Service,
		"📅 Date & Time: " + strings.TrimSpace(s.Date+" "+s.Time),
		"💬 Message: " + msg,
	}
	return strings.Join(lines, "\n")
}
