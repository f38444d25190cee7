package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// QueueExporter publishes one persistent message per envelope and waits for
// the broker to confirm it.
type QueueExporter struct {
	url        string
	exchange   string
	routingKey string
	timeout    time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	closeOnce sync.Once
}

func newQueue(def definition.ExportDefinition, opts Options) (*QueueExporter, error) {
	q := &QueueExporter{
		url:        def.AMQPURL,
		exchange:   def.ExchangeName,
		routingKey: def.RoutingKey,
		timeout:    opts.PublishTimeout,
		logger:     opts.Logger,
	}
	if err := q.connect(); err != nil {
		return nil, err
	}
	return q, nil
}

// connect dials the broker and enables publisher confirms. With no exchange
// configured, messages go through the default exchange to a durable queue
// named after the routing key, which is declared here.
func (q *QueueExporter) connect() error {
	target := redact(q.url)
	conn, err := amqp.DialConfig(q.url, amqp.Config{Dial: amqp.DefaultDial(q.timeout)})
	if err != nil {
		return &TransportError{Target: target, Err: fmt.Errorf("connect: %w", err)}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return &TransportError{Target: target, Err: fmt.Errorf("open channel: %w", err)}
	}

	if q.exchange == "" {
		if _, err := ch.QueueDeclare(q.routingKey, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return &TransportError{Target: target, Err: fmt.Errorf("declare queue %q: %w", q.routingKey, err)}
		}
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return &TransportError{Target: target, Err: fmt.Errorf("enable publisher confirms: %w", err)}
	}

	q.conn = conn
	q.channel = ch
	q.logger.Debug("connected to broker", "url", target, "exchange", q.exchange, "routing_key", q.routingKey)
	return nil
}

func (q *QueueExporter) Export(ctx context.Context, result record.Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	target := redact(q.url)
	if q.channel == nil || q.channel.IsClosed() {
		return &TransportError{Target: target, Err: errors.New("broker channel is closed")}
	}

	deferred, err := q.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		q.exchange,
		q.routingKey,
		false,
		false,
		amqp.Publishing{
			Headers:      amqp.Table{"file_name": result.FileName},
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return &TransportError{Target: target, Err: fmt.Errorf("publish: %w", err)}
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-deferred.Done():
		if !deferred.Acked() {
			return &TransportError{Target: target, Err: errors.New("broker NACK received")}
		}
		q.logger.Debug("envelope published", "routing_key", q.routingKey, "records", len(result.Records))
		return nil
	case <-timer.C:
		return &TransportError{Target: target, Err: errors.New("publisher confirm timeout")}
	}
}

func (q *QueueExporter) Close() error {
	q.closeOnce.Do(func() {
		if q.channel != nil {
			q.channel.Close()
		}
		if q.conn != nil {
			q.conn.Close()
		}
	})
	return nil
}
