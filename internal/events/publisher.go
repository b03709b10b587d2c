// Package events publishes subtitle blocks and run outcomes to Kafka.
//
// When publishing is disabled, or no brokers are configured, the publisher
// runs in log-only mode: events are still marshalled and logged at debug
// level, so downstream consumers can be prototyped from the log.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"subgen/internal/generate"
	"subgen/internal/logging"
	"subgen/internal/metrics"
	"subgen/internal/subtitles"
)

// Event type names, carried in the eventType header.
const (
	TypeBlock = "subtitle.block"
	TypeRun   = "subtitle.run"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// BlockEvent is published for every accepted subtitle block.
type BlockEvent struct {
	RunID     string          `json:"runId"`
	AudioName string          `json:"audioName,omitempty"`
	Sequence  int             `json:"sequence"`
	Block     subtitles.Block `json:"block"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// RunEvent is published when a run reaches a terminal phase.
type RunEvent struct {
	RunID      string         `json:"runId"`
	AudioName  string         `json:"audioName,omitempty"`
	Phase      generate.Phase `json:"phase"`
	Blocks     int            `json:"blocks"`
	Dropped    int            `json:"dropped"`
	Message    string         `json:"message,omitempty"`
	DurationMS int64          `json:"durationMs"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Publisher writes events keyed by run ID, so one run's blocks land on one
// partition in order.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a publisher. A nil metrics value disables publish accounting.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	logger = logging.NewComponentLogger(logger, "events")
	p := &Publisher{
		topic:   cfg.Topic,
		logger:  logger,
		metrics: m,
	}
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Debug("kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
		Completion:   p.completion,
	}
	p.enabled = true
	logger.Info("kafka publisher initialized",
		logging.Any("brokers", cfg.Brokers),
		logging.String("topic", cfg.Topic),
	)
	return p
}

// Enabled reports whether events leave the process.
func (p *Publisher) Enabled() bool {
	return p != nil && p.enabled
}

// PublishBlock sends one block event.
func (p *Publisher) PublishBlock(ctx context.Context, evt BlockEvent) error {
	return p.publish(ctx, TypeBlock, evt.RunID, evt)
}

// PublishRun sends one run outcome event.
func (p *Publisher) PublishRun(ctx context.Context, evt RunEvent) error {
	return p.publish(ctx, TypeRun, evt.RunID, evt)
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event failed", logging.String("event_type", eventType), logging.Error(err))
		return err
	}
	p.logger.Debug("publishing event",
		logging.String("topic", p.topic),
		logging.String("key", key),
		logging.String(logging.FieldEventType, eventType),
		logging.Int("payload_bytes", len(payload)),
	)

	if !p.enabled || p.writer == nil {
		p.metrics.RecordPublish(eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logging.WarnWithContext(p.logger, "kafka write failed", "event_publish_failed",
			logging.String("topic", p.topic),
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check events.brokers and broker reachability"),
			logging.String(logging.FieldImpact, "downstream consumers miss this event"),
		)
		p.metrics.RecordPublish(eventType, err, time.Since(start).Seconds())
		return err
	}
	p.metrics.RecordPublish(eventType, nil, time.Since(start).Seconds())
	return nil
}

// completion reports asynchronous delivery failures.
func (p *Publisher) completion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(p.logger, "kafka delivery failed", "event_delivery_failed",
		logging.String("topic", p.topic),
		logging.Int("messages", len(messages)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check events.brokers and broker reachability"),
		logging.String(logging.FieldImpact, "downstream consumers miss these events"),
	)
}

// Observe implements generate.Observer. Publishing never blocks generation
// beyond handing the message to the writer.
func (p *Publisher) Observe(evt generate.Event) {
	if p == nil {
		return
	}
	ctx := context.Background()
	st := evt.State
	switch evt.Kind {
	case generate.EventBlock:
		if evt.Block == nil {
			return
		}
		_ = p.PublishBlock(ctx, BlockEvent{
			RunID:     evt.RunID,
			AudioName: st.AudioName,
			Sequence:  len(st.Blocks),
			Block:     *evt.Block,
			EmittedAt: time.Now().UTC(),
		})
	case generate.EventPhase:
		if !st.Phase.Terminal() {
			return
		}
		_ = p.PublishRun(ctx, RunEvent{
			RunID:      evt.RunID,
			AudioName:  st.AudioName,
			Phase:      st.Phase,
			Blocks:     len(st.Blocks),
			Dropped:    st.Dropped,
			Message:    st.Message,
			DurationMS: st.Duration().Milliseconds(),
			FinishedAt: st.FinishedAt.UTC(),
		})
	}
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		p.logger.Error("closing kafka writer failed", logging.Error(err))
		return err
	}
	return nil
}
