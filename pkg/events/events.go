package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/spa-intake/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("spa-intake"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// Subjects
const (
	BookingSubmitted = "booking.submitted"
	VisitRecorded    = "visit.recorded"
)

type BookingSubmittedEvent struct {
	RowNumber int64  `json:"row_number"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
}

type VisitRecordedEvent struct {
	RowNumber   int64  `json:"row_number"`
	Timestamp   string `json:"timestamp"`
	Name        string `json:"name"`
	TherapyName string `json:"therapy_name"`
	Therapist   string `json:"therapist"`
	Date        string `json:"date"`
}
