package announce

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes settlement events to a Kafka topic, keyed by
// account so a consumer sees one account's outcomes in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", e.AccountID)),
		Value: payload,
	})
	if err != nil {
		PublishErrorsTotal.Inc()
		return fmt.Errorf("write event: %w", err)
	}

	PublishedTotal.WithLabelValues(string(e.Kind)).Inc()
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("closing-kafka-publisher")
	return p.writer.Close()
}
