package mailer

import (
	"context"

	"github.com/diagnosis/spa-intake/pkg/logger"
)

// DevMailer logs messages instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, msg Message) (string, error) {
	logger.InfoContext(ctx, "📧 [DEV MAIL] Notification email",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return "dev", nil
}
