package notification

import (
	"context"
	"log/slog"
)

var _ NotificationClient = (*LogClient)(nil)

// LogClient writes notifications to the log. It is used when no mail
// provider is configured.
type LogClient struct{}

func NewLogClient() *LogClient {
	return &LogClient{}
}

func (c *LogClient) SendEmail(_ context.Context, request EmailRequest) error {
	slog.Info("notification",
		slog.String("to", request.To),
		slog.String("subject", request.Subject),
		slog.String("body", request.Body),
	)
	return nil
}
