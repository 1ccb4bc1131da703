package activity

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Logger is the write-only activity log. Calls are fire-and-forget: a
// failed write is logged and never surfaced to the triggering operation.
type Logger interface {
	Log(userID, action, description string)
}

type event struct {
	UserID      string    `json:"userId"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// KafkaLogger publishes activity events to a Kafka topic.
type KafkaLogger struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer builds a producer configured for the activity stream.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "flow-chat-service"

	return sarama.NewSyncProducer(brokers, config)
}

func NewKafkaLogger(producer sarama.SyncProducer, topic string) *KafkaLogger {
	return &KafkaLogger{producer: producer, topic: topic}
}

func (l *KafkaLogger) Log(userID, action, description string) {
	payload, err := json.Marshal(event{
		UserID:      userID,
		Action:      action,
		Description: description,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to encode activity event", "action", action, "error", err)
		return
	}

	_, _, err = l.producer.SendMessage(&sarama.ProducerMessage{
		Topic: l.topic,
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		slog.Error("Failed to publish activity event", "action", action, "error", err)
	}
}

// NopLogger discards every event. Used when no broker is configured and in
// tests.
type NopLogger struct{}

func (NopLogger) Log(userID, action, description string) {}
