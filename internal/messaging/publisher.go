package messaging

import (
	"context"
	"fmt"
	"time"

	"listkeeper/internal/domain/listparams"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const RoutingKeyChanged = "listparams.changed"

// ParamsChanged is published after every committed change
type ParamsChanged struct {
	SessionID string                `json:"sessionId"`
	Resource  string                `json:"resource"`
	Action    string                `json:"action"`
	Params    listparams.ListParams `json:"params"`
	Location  string                `json:"location"`
	At        time.Time             `json:"at"`
}

// Publisher sends change events to a topic exchange
type Publisher struct {
	conn     *amqp.Connection
	exchange string
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	p := &Publisher{conn: conn, exchange: exchange}
	if err := p.defineExchange(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info().Str("exchange", exchange).Msg("amqp publisher ready")
	return p, nil
}

func (p *Publisher) defineExchange() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	return ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // noWait
		nil,        // arguments
	)
}

// Publish sends one event. A channel is opened per call; commits are rare
// compared to reads.
func (p *Publisher) Publish(ctx context.Context, evt ParamsChanged) error {
	body, err := sonic.Marshal(evt)
	if err != nil {
		return err
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	return ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKeyChanged,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   evt.At,
			Body:        body,
		},
	)
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
