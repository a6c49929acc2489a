package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// CommandLogConfig configures the JetStream stream that retains command outcomes.
type CommandLogConfig struct {
	URL        string
	StreamName string
	MaxAge     time.Duration
	// MaxMsgs caps retained messages; 0 keeps everything within MaxAge.
	MaxMsgs int64
}

// NATSCommandLog publishes command outcomes to a retained JetStream stream
// so audit consumers can read them after the fact. It implements events.Publisher.
type NATSCommandLog struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream string
}

func NewNATSCommandLog(cfg CommandLogConfig) (*NATSCommandLog, error) {
	if cfg.StreamName == "" {
		cfg.StreamName = "BACKOFFICE_COMMANDS"
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("backoffice-command-log"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{BackofficeCommandTopic},
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	return &NATSCommandLog{conn: conn, js: js, stream: cfg.StreamName}, nil
}

// Publish waits for the stream to acknowledge the message.
func (l *NATSCommandLog) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := l.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", l.stream, err)
	}
	return nil
}

func (l *NATSCommandLog) Close() error {
	l.conn.Close()
	return nil
}
