package notification

import (
	"context"
	"errors"
	"strings"
)

//go:generate mockgen -source=notification_client.go -destination=../../../test/unit/doubles/infra/notification/notification_client_mock.go -package=notification -mock_names=NotificationClient=MockNotificationClient

var ErrNoRecipient = errors.New("email request has no recipient")

// NotificationClient delivers coop event notifications to the keeper.
type NotificationClient interface {
	SendEmail(ctx context.Context, request EmailRequest) error
}

// EmailRequest is a plain text email about a coop event.
type EmailRequest struct {
	To      string
	Subject string
	Body    string
}

func (r EmailRequest) Validate() error {
	if strings.TrimSpace(r.To) == "" {
		return &NotificationError{Message: "invalid email request", Err: ErrNoRecipient}
	}
	return nil
}

// NotificationError wraps a delivery failure with the step that failed.
type NotificationError struct {
	Message string
	Err     error
}

func (e *NotificationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
