package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/mkravets/erp-costing/pkg/logger"
)

// Publisher is the outbound event contract of the costing engine. Publishing
// is best-effort: callers log failures but never roll back a committed
// ledger mutation because of them.
type Publisher interface {
	PublishStockReceived(ctx context.Context, event StockReceivedEvent) error
	PublishStockConsumed(ctx context.Context, event StockConsumedEvent) error
	Close() error
}

// KafkaPublisher wraps a Kafka sync producer
type KafkaPublisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &KafkaPublisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishStockReceived publishes a stock received event with tracing
func (p *KafkaPublisher) PublishStockReceived(ctx context.Context, event StockReceivedEvent) error {
	event.EventType = EventTypeStockReceived
	if event.EventID == "" {
		event.EventID = newEventID()
	}
	event.Timestamp = time.Now().UTC()

	key := fmt.Sprintf("%s:%s:%s", event.TenantID, event.ProductID, event.WarehouseID)

	return p.publish(ctx, TopicStockReceived, key, event.EventID, event,
		attribute.String("event.type", EventTypeStockReceived),
		attribute.String("costing.tenant_id", event.TenantID),
		attribute.String("costing.product_id", event.ProductID),
		attribute.Int("layer.id", int(event.LayerID)),
	)
}

// PublishStockConsumed publishes a stock consumed event with tracing
func (p *KafkaPublisher) PublishStockConsumed(ctx context.Context, event StockConsumedEvent) error {
	event.EventType = EventTypeStockConsumed
	if event.EventID == "" {
		event.EventID = newEventID()
	}
	event.Timestamp = time.Now().UTC()

	key := fmt.Sprintf("%s:%s:%s", event.TenantID, event.ProductID, event.WarehouseID)

	return p.publish(ctx, TopicStockConsumed, key, event.EventID, event,
		attribute.String("event.type", EventTypeStockConsumed),
		attribute.String("costing.tenant_id", event.TenantID),
		attribute.String("costing.product_id", event.ProductID),
		attribute.String("consumption.method", event.Method.String()),
		attribute.String("consumption.total_cost", event.TotalCost.String()),
	)
}

// publish marshals the event, injects trace context into Kafka headers and
// sends it through the sync producer
func (p *KafkaPublisher) publish(ctx context.Context, topic, key, eventID string, event interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("costing-events")
	ctx, span := tracer.Start(ctx, "kafka.publish."+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(append(attrs,
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("event.id", eventID),
		)...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_id", eventID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)

	logger.Logger.Info().
		Str("event_id", eventID).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Costing event published")

	return nil
}

// Close closes the Kafka producer
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func newEventID() string {
	return fmt.Sprintf("evt_%d", time.Now().UnixNano())
}
