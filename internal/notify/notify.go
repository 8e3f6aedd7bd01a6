// Package notify fans a recorded booking out to the owner's inbox, WhatsApp and the event bus.
// Channels are independent: one failing never stops or rolls back another, and nothing here
// can fail the request that triggered it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/platform/mailer"
	"github.com/diagnosis/spa-intake/pkg/events"
	"github.com/diagnosis/spa-intake/pkg/logger"
)

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelEvent    = "event"
)

// Result is the outcome of one channel.
type Result struct {
	Channel string
	OK      bool
	ID      string
	Err     error
}

type WhatsAppSender interface {
	SendTemplate(ctx context.Context, to, templateName string, params []string) (string, error)
}

type Config struct {
	SiteName          string
	AdminEmail        string
	WhatsAppRecipient string
	WhatsAppTemplate  string
	// Location renders the submission time in the owner's zone; nil means time.Local.
	Location *time.Location
}

type Notifier struct {
	mail      mailer.Service
	whatsapp  WhatsAppSender
	publisher events.Publisher
	cfg       Config
}

// New wires the channels. publisher may be nil, which drops the event channel.
func New(mail mailer.Service, wa WhatsAppSender, publisher events.Publisher, cfg Config) *Notifier {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Notifier{mail: mail, whatsapp: wa, publisher: publisher, cfg: cfg}
}

type send struct {
	channel string
	fn      func(ctx context.Context) (string, error)
}

// BookingSubmitted notifies about a public booking: email, WhatsApp alert and event.
func (n *Notifier) BookingSubmitted(ctx context.Context, s domain.Submission, rowNumber int64) []Result {
	sends := []send{
		{ChannelEmail, func(ctx context.Context) (string, error) {
			msg, err := n.bookingEmail(s)
			if err != nil {
				return "", err
			}
			return n.sendMail(ctx, msg)
		}},
		{ChannelWhatsApp, func(ctx context.Context) (string, error) {
			return n.whatsapp.SendTemplate(ctx, n.cfg.WhatsAppRecipient, n.cfg.WhatsAppTemplate, []string{BookingAlert(s)})
		}},
	}
	if n.publisher != nil {
		sends = append(sends, send{ChannelEvent, func(ctx context.Context) (string, error) {
			return "", n.publisher.Publish(ctx, events.BookingSubmitted, events.BookingSubmittedEvent{
				RowNumber: rowNumber,
				Timestamp: s.Timestamp,
				Service:   s.Service,
				Date:      s.Date,
				Time:      s.Time,
				FirstName: s.FirstName,
				Phone:     s.Phone,
			})
		}})
	}
	return fanOut(ctx, sends)
}

// VisitRecorded notifies about a front-desk entry: email and event only.
func (n *Notifier) VisitRecorded(ctx context.Context, a domain.AdminRecord, rowNumber int64) []Result {
	sends := []send{
		{ChannelEmail, func(ctx context.Context) (string, error) {
			msg, err := n.visitEmail(a)
			if err != nil {
				return "", err
			}
			return n.sendMail(ctx, msg)
		}},
	}
	if n.publisher != nil {
		sends = append(sends, send{ChannelEvent, func(ctx context.Context) (string, error) {
			return "", n.publisher.Publish(ctx, events.VisitRecorded, events.VisitRecordedEvent{
				RowNumber:   rowNumber,
				Timestamp:   a.Timestamp,
				Name:        a.Name,
				TherapyName: a.TherapyName,
				Therapist:   a.Therapist,
				Date:        a.Date,
			})
		}})
	}
	return fanOut(ctx, sends)
}

func (n *Notifier) sendMail(ctx context.Context, msg mailer.Message) (string, error) {
	if n.cfg.AdminEmail == "" {
		return "", errors.New("admin email not configured")
	}
	msg.To = n.cfg.AdminEmail
	return n.mail.Send(ctx, msg)
}

// fanOut runs every send concurrently and reports results in input order.
func fanOut(ctx context.Context, sends []send) []Result {
	results := make([]Result, len(sends))
	var g errgroup.Group
	for i, s := range sends {
		g.Go(func() error {
			results[i] = run(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func run(ctx context.Context, s send) (res Result) {
	res.Channel = s.channel
	defer func() {
		if p := recover(); p != nil {
			res.OK = false
			res.Err = fmt.Errorf("%s channel panicked: %v", s.channel, p)
		}
	}()
	id, err := s.fn(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.OK = true
	res.ID = id
	return res
}

// Log writes one line per channel; failures are errors, never returned.
func Log(ctx context.Context, results []Result) {
	for _, r := range results {
		if r.OK {
			logger.InfoContext(ctx, "Notification sent", "channel", r.Channel, "id", r.ID)
			continue
		}
		logger.ErrorContext(ctx, "Notification failed", "channel", r.Channel, "error", r.Err)
	}
}
