package kafka

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/domain"
)

// Event types emitted on the game-event stream
const (
	EventCreatureGenerated = "creature_generated"
	EventCreatureSold      = "creature_sold"
	EventScoreSaved        = "score_saved"
)

// GameEvent is one entry on the audit/analytics stream
type GameEvent struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	CreatureID int64         `json:"creature_id,omitempty"`
	Rarity     domain.Rarity `json:"rarity,omitempty"`
	Score      int           `json:"score,omitempty"`
	SaleValue  int           `json:"sale_value,omitempty"`
	Nickname   string        `json:"nickname,omitempty"`
	Tokens     int           `json:"tokens,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Producer publishes game events asynchronously. Publishing is fire-and-
// forget from the caller's perspective: a broker outage degrades to dropped
// events, never to a failed game action.
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducer creates an async game-event producer
func NewProducer(cfg *config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	p := &Producer{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}

	go func() {
		for err := range producer.Errors() {
			p.logger.Warn("game event publish failed", "error", err)
		}
	}()

	return p, nil
}

// Publish queues a game event for delivery
func (p *Producer) Publish(event GameEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal game event", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Type),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case p.producer.Input() <- msg:
	default:
		p.logger.Warn("game event channel full, dropping event", "type", event.Type)
	}
}

// Close flushes pending events and shuts the producer down
func (p *Producer) Close() error {
	return p.producer.Close()
}
