package mailer

import "context"

// Message is one outbound email with a plain-text and an HTML alternative.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	// Send delivers msg and returns the provider message id when one is available.
	Send(ctx context.Context, msg Message) (string, error)
}
