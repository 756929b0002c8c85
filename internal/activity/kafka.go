package activity

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes entries as JSON to a topic, keyed by chat id.
type KafkaPublisher struct {
	w       messageWriter
	timeout time.Duration
}

// KafkaAuth configures broker authentication. The zero value is plaintext.
type KafkaAuth struct {
	Mechanism string // PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512
	Username  string
	Password  string
	TLS       bool
}

func (a KafkaAuth) transport() (*kafka.Transport, error) {
	if a.Mechanism == "" && !a.TLS {
		return nil, nil
	}
	t := &kafka.Transport{}
	if a.TLS {
		t.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	var (
		mech sasl.Mechanism
		err  error
	)
	switch strings.ToUpper(strings.TrimSpace(a.Mechanism)) {
	case "":
	case "PLAIN":
		mech = plain.Mechanism{Username: a.Username, Password: a.Password}
	case "SCRAM-SHA-256":
		mech, err = scram.Mechanism(scram.SHA256, a.Username, a.Password)
	case "SCRAM-SHA-512":
		mech, err = scram.Mechanism(scram.SHA512, a.Username, a.Password)
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism %q", a.Mechanism)
	}
	if err != nil {
		return nil, err
	}
	t.SASL = mech
	return t, nil
}

// NewKafkaPublisher builds a synchronous writer for the comma-separated
// broker list. auth is optional.
func NewKafkaPublisher(brokers, topic string, auth ...KafkaAuth) (*KafkaPublisher, error) {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka publisher: brokers and topic are required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	if len(auth) > 0 {
		t, err := auth[0].transport()
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		if t != nil {
			w.Transport = t
		}
	}
	return &KafkaPublisher{w: w, timeout: 10 * time.Second}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(e.ChatID),
		Value:   body,
		Headers: []kafka.Header{{Key: "kind", Value: []byte(e.Kind)}},
		Time:    e.CreatedAt,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
