package notification

import (
	"context"
	"errors"
)

var _ NotificationClient = (*CompositeNotificationClient)(nil)

// CompositeNotificationClient fans a notification out to every client and
// joins their errors.
type CompositeNotificationClient struct {
	clients []NotificationClient
}

func NewCompositeNotificationClient(clients ...NotificationClient) *CompositeNotificationClient {
	return &CompositeNotificationClient{
		clients: clients,
	}
}

func (c *CompositeNotificationClient) SendEmail(ctx context.Context, request EmailRequest) error {
	var errs []error
	for _, client := range c.clients {
		if err := client.SendEmail(ctx, request); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
