// Package events emits pipeline stage events to Kafka so downstream
// consumers can track runs without polling the database. Emission is best
// effort: a broker outage never fails a pipeline run.
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Event kinds emitted during a pipeline run.
const (
	EventTopicAccepted = "topic_accepted"
	EventTopicRejected = "topic_rejected"
	EventBlogGenerated = "blog_generated"
	EventPublished     = "published"
	EventRunFailed     = "run_failed"
)

// Event is the message body produced for every stage transition.
type Event struct {
	Kind      string    `json:"kind"`
	Category  string    `json:"category,omitempty"`
	TopicID   string    `json:"topic_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Score     float64   `json:"score,omitempty"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter publishes run events. The nil *Producer emitter is valid and
// drops everything, so callers never branch on whether Kafka is configured.
type Emitter interface {
	Emit(event Event)
	Close() error
}

// Producer emits events through a sarama sync producer.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer creates a Kafka event producer.
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	return &Producer{producer: producer, topic: config.Topic}, nil
}

// Emit publishes one event, logging and swallowing any failure.
func (p *Producer) Emit(event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", event.Kind, err)
		return
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Kind),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		log.Printf("Failed to emit %s event: %v", event.Kind, err)
	}
}

// Close shuts down the underlying producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
