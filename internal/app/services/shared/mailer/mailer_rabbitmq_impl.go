package mailer

import (
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// emailJob is the message consumed by the mail worker.
type emailJob struct {
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type rabbitMQMailer struct {
	Channel  *amqp091.Channel
	Confirms chan amqp091.Confirmation
	Queue    string
	Sender   string
	Log      *zap.Logger
	mu       sync.Mutex
}

var (
	mailerInstance contracts.MailerService
	onceMailer     sync.Once
)

// NewRabbitMQMailer declares the durable mail queue and publishes in confirm
// mode, so an acked SendEmail means the broker owns the message.
func NewRabbitMQMailer(conn *amqp091.Connection, internalConfig *config.InternalConfig, logger *zap.Logger) (contracts.MailerService, error) {
	var initErr error
	onceMailer.Do(func() {
		ch, err := conn.Channel()
		if err != nil {
			initErr = err
			return
		}
		if err := ch.Confirm(false); err != nil {
			initErr = err
			return
		}
		if _, err := ch.QueueDeclare(internalConfig.Mailer.Queue, true, false, false, false, nil); err != nil {
			initErr = err
			return
		}
		mailerInstance = &rabbitMQMailer{
			Channel:  ch,
			Confirms: ch.NotifyPublish(make(chan amqp091.Confirmation, 1)),
			Queue:    internalConfig.Mailer.Queue,
			Sender:   internalConfig.Mailer.EmailSender,
			Log:      logger,
		}
	})
	return mailerInstance, initErr
}

func (m *rabbitMQMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(emailJob{
		Sender:  m.Sender,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	msg := amqp091.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         payload,
		DeliveryMode: amqp091.Persistent,
	}
	if err := m.Channel.PublishWithContext(ctx, "", m.Queue, false, false, msg); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, m.Queue)
	}

	select {
	case confirmed := <-m.Confirms:
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), m.Queue)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), m.Queue)
	}

	m.Log.Info("rabbitMQMailer enqueued email",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
