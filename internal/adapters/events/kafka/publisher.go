package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"loan-default-dashboard/internal/domain/diagnostics"
)

var (
	ErrNoBrokers = errors.New("kafka: no brokers configured")
)

type Config struct {
	Brokers []string
	Topic   string
	// WriteTimeout por mensaje. 0 = 10s.
	WriteTimeout time.Duration
}

// Event es el payload JSON publicado por cada diagnóstico persistido.
type Event struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Record  map[string]string `json:"record"`
	Emitted string            `json:"emitted_at"`
}

const EventType = "diagnostic.submitted"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher es un diagnostics.Sink que espeja cada registro en un topic.
type Publisher struct {
	w       messageWriter
	timeout time.Duration
	now     func() time.Time
}

func NewPublisher(cfg Config) (*Publisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka: topic required")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg.WriteTimeout), nil
}

func newPublisher(w messageWriter, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{w: w, timeout: timeout, now: time.Now}
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Mirror(ctx context.Context, submissionID string, rec diagnostics.Record) error {
	payload, err := json.Marshal(Event{
		ID:      submissionID,
		Type:    EventType,
		Record:  rec.Map(),
		Emitted: p.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", submissionID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(submissionID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("kafka: write %s: %w", submissionID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
