package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lingora/lingora-backend/internal/logger"
)

const (
	consumerPrefetch  = 20
	initialBackoff    = time.Second
	maxBackoff        = 30 * time.Second
	reconnectCooldown = 2 * time.Second
)

// Mailer отправляет письмо, описанное событием.
type Mailer interface {
	Send(ctx context.Context, event MailEvent) error
}

// Consumer читает очередь почтовых событий и передаёт их Mailer.
type Consumer struct {
	url    string
	queue  string
	mailer Mailer
}

// NewConsumer создаёт потребителя очереди.
func NewConsumer(url, queueName string, mailer Mailer) *Consumer {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Consumer{url: url, queue: queueName, mailer: mailer}
}

// Run держит подключение к брокеру до отмены ctx, переподключаясь
// с экспоненциальной задержкой.
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.Component("mail-consumer")
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("mail-consumer: брокер недоступен, повтор через %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("mail-consumer: цикл чтения завершён, переподключение")
		if !sleep(ctx, reconnectCooldown) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("открытие канала: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		logger.Component("mail-consumer").WithError(err).Warn("mail-consumer: не удалось установить QoS")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("объявление очереди: %w", err)
	}
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("подписка на очередь: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("канал доставки закрыт")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				logger.Component("mail-consumer").WithError(err).Error("mail-consumer: письмо не обработано")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle декодирует тело сообщения и передаёт событие Mailer.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var event MailEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("queue: разбор события %w", err)
	}
	if event.Type == "" || len(event.To) == 0 {
		return fmt.Errorf("queue: событие без типа или получателя")
	}
	return c.mailer.Send(ctx, event)
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
