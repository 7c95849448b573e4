package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"
)

// Email is one outbound email job. Delivery is owned by a downstream worker
// consuming the queue; this package only hands the job off.
type Email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sink accepts email jobs for asynchronous delivery.
type Sink interface {
	Enqueue(ctx context.Context, email Email) error
}

// QueueSink publishes email jobs to a NATS JetStream subject.
type QueueSink struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

func NewQueueSink(url, subject string) (*QueueSink, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &QueueSink{conn: nc, js: js, subject: subject}, nil
}

func (s *QueueSink) Enqueue(ctx context.Context, email Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	_, err = s.js.Publish(s.subject, data, nats.Context(ctx))
	return err
}

func (s *QueueSink) Close() {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}

// LogSink drops email jobs with a log line. Used when no queue is configured
// so local runs still work end to end.
type LogSink struct{}

func (LogSink) Enqueue(_ context.Context, email Email) error {
	log.Printf("INFO [notify.LogSink] dropping email to=%s subject=%q", email.To, email.Subject)
	return nil
}
