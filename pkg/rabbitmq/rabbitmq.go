package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// AuditQueue receives a copy of every domain event when the audit consumer is enabled.
const AuditQueue = "tienda.audit"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex // amqp.Channel is not safe for concurrent publishes
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the durable topic exchange
// the domain events are published to.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("RabbitMQ client connected")

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message to the exchange under routingKey.
func (c *Client) Publish(routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	log.Debug().Str("routing_key", routingKey).Msg("event published")
	return nil
}

// ConsumeEvents binds queue to the exchange with bindingKey and hands every
// delivery to messageHandler on a background goroutine. Deliveries are acked
// when the handler succeeds and dropped (not requeued) when it fails, so a
// poison message cannot loop forever.
func (c *Client) ConsumeEvents(queue, bindingKey string, messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	q, err := c.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := c.channel.QueueBind(q.Name, bindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	msgs, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer tag
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info().Str("queue", q.Name).Str("binding", bindingKey).Msg("waiting for events")

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("error processing event")
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Error().Err(nackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("error nacking event")
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Error().Err(ackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("error acking event")
			}
		}
	}()

	return nil
}

// AuditHandler logs each received domain event.
func AuditHandler(msg amqp.Delivery) error {
	if len(msg.Body) == 0 {
		return fmt.Errorf("empty event body for %s", msg.RoutingKey)
	}
	log.Info().Str("routing_key", msg.RoutingKey).RawJSON("event", msg.Body).Msg("domain event")
	return nil
}
