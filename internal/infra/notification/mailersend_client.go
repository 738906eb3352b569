package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailersend/mailersend-go"
)

const _maxSendAttempts = 3

var _ NotificationClient = (*MailerSendClient)(nil)

// MailerSendClient implements NotificationClient using MailerSend API
type MailerSendClient struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
	backoff   time.Duration
}

type MailerSendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func NewMailerSendClient(config MailerSendConfig) *MailerSendClient {
	return &MailerSendClient{
		client:    mailersend.NewMailersend(config.APIKey),
		fromEmail: config.FromEmail,
		fromName:  config.FromName,
		backoff:   time.Second,
	}
}

func (c *MailerSendClient) SendEmail(ctx context.Context, request EmailRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}

	message := c.client.Email.NewMessage()
	message.SetFrom(mailersend.From{
		Email: c.fromEmail,
		Name:  c.fromName,
	})
	message.SetRecipients([]mailersend.Recipient{
		{
			Email: request.To,
		},
	})
	message.SetSubject(request.Subject)
	message.SetText(request.Body)

	return c.sendWithRetry(ctx, message)
}

// sendWithRetry makes up to three attempts with a linear backoff, giving up
// as soon as ctx is done.
func (c *MailerSendClient) sendWithRetry(ctx context.Context, message *mailersend.Message) error {
	var lastErr error

	for attempt := 1; attempt <= _maxSendAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &NotificationError{Message: "sending email cancelled", Err: err}
		}

		_, err := c.client.Email.Send(ctx, message)
		if err == nil {
			return nil
		}

		lastErr = &NotificationError{
			Message: fmt.Sprintf("MailerSend API error (attempt %d/%d)", attempt, _maxSendAttempts),
			Err:     err,
		}
		slog.Warn("sending email failed", slog.Int("attempt", attempt), slog.Any("error", err))

		if attempt < _maxSendAttempts {
			select {
			case <-ctx.Done():
				return &NotificationError{Message: "sending email cancelled", Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}

	return lastErr
}
