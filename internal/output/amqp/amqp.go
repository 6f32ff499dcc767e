// Package amqp publishes saved records to a RabbitMQ queue.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/output"
)

// publisher is the part of *amqp.Channel the output uses.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Output publishes one persistent JSON message per saved record.
type Output struct {
	mu        sync.Mutex
	ch        publisher
	conn      interface{ Close() error }
	queue     string
	verbosity output.Verbosity
}

// Dial connects to url and declares a durable queue.
func Dial(url, queue string, verbosity output.Verbosity) (*Output, error) {
	if queue == "" {
		return nil, errors.New("amqp output: queue is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp output: connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp output: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp output: declare queue %s: %w", queue, err)
	}
	o := newOutput(ch, queue, verbosity)
	o.conn = conn
	return o, nil
}

func newOutput(ch publisher, queue string, verbosity output.Verbosity) *Output {
	return &Output{ch: ch, queue: queue, verbosity: verbosity}
}

// publishing builds the message for rec.
func (o *Output) publishing(rec model.Record) (amqp.Publishing, error) {
	body, err := json.Marshal(output.Format(rec, o.verbosity))
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    rec.ID,
		Timestamp:    time.Now().UTC(),
		Type:         "timecard.saved",
		Body:         body,
	}, nil
}

func (o *Output) Write(ctx context.Context, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := o.publishing(rec)
	if err != nil {
		return fmt.Errorf("amqp output: marshal: %w", err)
	}
	// Channels are not safe for concurrent publishing.
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.ch.Publish("", o.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp output: publish: %w", err)
	}
	return nil
}

// Close closes the channel, then the connection.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs []error
	if err := o.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("amqp output: close channel: %w", err))
	}
	if o.conn != nil {
		if err := o.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp output: close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
