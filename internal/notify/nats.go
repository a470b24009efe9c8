package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
)

const (
	defaultSubject = "mdcms.content"
	defaultStream  = "MDCMS_CONTENT"
	defaultTimeout = 5 * time.Second
)

// Config configures the NATS publisher.
type Config struct {
	URL     string
	Subject string
	Stream  string
	Timeout time.Duration
}

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher publishes content events to a JetStream stream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      streamPublisher
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

// NewNATSPublisher connects to NATS and makes sure the stream capturing the
// content subject exists.
func NewNATSPublisher(ctx context.Context, cfg Config, logger *slog.Logger) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("events.nats_url is required when events are enabled").Build()
	}
	cfg = withDefaults(cfg)
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("mdcms"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Retryable().
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to create JetStream context").Build()
	}

	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	_, err = js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Content changes made through mdcms",
		Subjects:    []string{cfg.Subject, cfg.Subject + ".>"},
		MaxAge:      7 * 24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to create content stream").
			WithContext("stream", cfg.Stream).
			Build()
	}

	logger.Info("NATS publisher initialized",
		slog.String("url", cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return newNATSPublisher(conn, js, cfg, logger), nil
}

func newNATSPublisher(conn *nats.Conn, js streamPublisher, cfg Config, logger *slog.Logger) *NATSPublisher {
	cfg = withDefaults(cfg)
	return &NATSPublisher{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	if cfg.Stream == "" {
		cfg.Stream = defaultStream
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// Subject returns the subject an event is published on, for example
// "mdcms.content.saved" for a content.saved event.
func (p *NATSPublisher) Subject(event ContentEvent) string {
	return p.subject + "." + strings.TrimPrefix(event.Type, "content.")
}

// Publish sends event to JetStream and waits for the ack.
func (p *NATSPublisher) Publish(ctx context.Context, event ContentEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to marshal content event").Build()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	subject := p.Subject(event)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to publish content event").
			WithContext("subject", subject).
			Retryable().
			Build()
	}

	p.logger.Debug("Published content event",
		slog.String("subject", subject),
		logfields.Path(event.Path),
		logfields.SessionID(event.SessionID))
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
