package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	model "voltbay/internal/models"
	"voltbay/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange receives every notification, routed by notification.<type>
const Exchange = "voltbay.notifications"

//go:generate mockgen -source=publisher.go -destination=mock_publisher.go -package=notify

// Publisher delivers one notification to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, n model.Notification) error
}

// RoutingKey is the topic a notification is published under
func RoutingKey(n model.Notification) string {
	return "notification." + string(n.Type)
}

// AMQPPublisher publishes to a durable topic exchange with publisher confirms.
// A dropped connection or channel is reopened on the next Publish.
type AMQPPublisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, dial: amqp.Dial}
	if err := p.connect(); err != nil {
		if p.conn != nil {
			_ = p.conn.Close()
		}
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held
func (p *AMQPPublisher) connect() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		if p.conn != nil {
			utils.Warn("rabbitmq connection re-established", nil)
		}
		p.conn = conn
		p.ch = nil
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	return p.openChannel()
}

func (p *AMQPPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("enable confirms: %w", err)
	}
	p.ch = ch
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, n model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return err
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, Exchange, RoutingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Type:         string(n.Type),
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm notification %s: %w", n.ID, err)
	}
	if !acked {
		return fmt.Errorf("notification %s was nacked by the broker", n.ID)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// LogPublisher writes notifications to the log when no broker is configured
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, n model.Notification) error {
	utils.Info("notification", map[string]any{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"routing_key":     RoutingKey(n),
		"title":           n.Title,
	})
	return nil
}
