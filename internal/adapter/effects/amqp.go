package effects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/rabbitmq/amqp091-go"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

var dialChannel = func(amqpURL string) (amqpChannel, io.Closer, error) {
	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		return nil, nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return channel, conn, nil
}

// AMQPDispatcher publishes review effects to a topic exchange, one routing
// key per effect.
type AMQPDispatcher struct {
	channel  amqpChannel
	conn     io.Closer
	exchange string
	logger   *slog.Logger
}

var _ repository.EffectsDispatcher = (*AMQPDispatcher)(nil)

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewAMQPDispatcher connects to the broker and declares the durable exchange.
func NewAMQPDispatcher(amqpURL, exchange string, logger *slog.Logger) (*AMQPDispatcher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	channel, conn, err := dialChannel(cleanURL)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPDispatcher{channel: channel, conn: conn, exchange: exchange, logger: logger}, nil
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, effect workflow.Effect, w model.Withdrawal) error {
	event := NewEvent(effect, w)
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = d.channel.PublishWithContext(ctx, d.exchange, string(effect), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.MessageID(),
		Timestamp:    event.ReviewedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", effect, err)
	}

	d.logger.Debug("effect published",
		slog.String("exchange", d.exchange),
		slog.String("routing_key", string(effect)),
		slog.String("withdrawal_id", w.ID),
	)
	return nil
}

// Close gracefully closes the channel and connection.
func (d *AMQPDispatcher) Close() error {
	var errs []error
	if d.channel != nil {
		errs = append(errs, d.channel.Close())
	}
	if d.conn != nil {
		errs = append(errs, d.conn.Close())
	}
	return errors.Join(errs...)
}
