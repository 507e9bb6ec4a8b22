// Package kafka forwards audit events to a Kafka topic so downstream
// consumers (compliance archival, SIEM) can subscribe without touching the
// primary store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"geoattend/internal/audit"
)

type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to the given brokers. Records are keyed by user ID
// so per-user event ordering survives partitioning.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka audit sink: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

type wireEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id"`
	Action      string    `json:"action"`
	ZoneID      string    `json:"zone_id,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	PayloadHash string    `json:"payload_hash,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty"`
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(wireEvent{
		Timestamp:   event.Timestamp,
		UserID:      event.UserID.String(),
		Action:      event.Action,
		ZoneID:      event.ZoneID,
		Decision:    event.Decision,
		Reason:      event.Reason,
		PayloadHash: event.PayloadHash,
		RequestID:   event.RequestID,
		ClientIP:    event.ClientIP,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID.String()),
		Value: value,
	}
	return s.client.ProduceSync(ctx, record).FirstErr()
}

func (s *Sink) Close() {
	s.client.Close()
}

var _ audit.Sink = (*Sink)(nil)
