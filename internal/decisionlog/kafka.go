/*

This file contains the Kafka mirror. Decisions are published keyed by cycle
id so downstream alerting can consume one partition-ordered stream per
agent. Publishing is best effort; the broker being down never blocks a
cycle.

*/

package decisionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/types"
)

// KafkaPublisher publishes decision entries to a Kafka topic.
type KafkaPublisher struct {
	logger   zerolog.Logger
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("decisionlog: at least one Kafka broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("decisionlog: Kafka topic is required")
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("connect Kafka producer: %w", err)
	}

	return &KafkaPublisher{
		logger:   logger.GetForComponent("kafka_publisher"),
		producer: producer,
		topic:    topic,
	}, nil
}

// Append publishes one entry to the topic.
func (p *KafkaPublisher) Append(_ context.Context, entry types.DecisionLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode decision entry: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(entry.CycleID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish decision to %s: %w", p.topic, err)
	}

	p.logger.Debug().
		Str("cycle_id", entry.CycleID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Decision published")
	return nil
}

// Close shuts down the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
