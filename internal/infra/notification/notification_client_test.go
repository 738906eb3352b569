package notification_test

import (
	"context"
	"errors"

	"coop-server/internal/infra/notification"
	mocknotification "coop-server/test/unit/doubles/infra/notification"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Notification clients", func() {
	var (
		ctx     context.Context
		request notification.EmailRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		request = notification.EmailRequest{
			To:      "keeper@example.com",
			Subject: "Coop door closed",
			Body:    "The coop door closed at 19:42",
		}
	})

	Context("CompositeNotificationClient", func() {
		var (
			ctrl   *gomock.Controller
			first  *mocknotification.MockNotificationClient
			second *mocknotification.MockNotificationClient
		)

		BeforeEach(func() {
			ctrl = gomock.NewController(GinkgoT())
			first = mocknotification.NewMockNotificationClient(ctrl)
			second = mocknotification.NewMockNotificationClient(ctrl)
		})

		It("should send through every client", func() {
			first.EXPECT().SendEmail(ctx, request).Return(nil)
			second.EXPECT().SendEmail(ctx, request).Return(nil)

			client := notification.NewCompositeNotificationClient(first, second)

			Expect(client.SendEmail(ctx, request)).To(Succeed())
		})

		It("should keep going after a failure and report it", func() {
			errMail := errors.New("mail provider down")
			first.EXPECT().SendEmail(ctx, request).Return(errMail)
			second.EXPECT().SendEmail(ctx, request).Return(nil)

			client := notification.NewCompositeNotificationClient(first, second)

			Expect(client.SendEmail(ctx, request)).To(MatchError(errMail))
		})
	})

	Context("MailerSendClient", func() {
		It("should give up without sending when the context is cancelled", func() {
			client := notification.NewMailerSendClient(notification.MailerSendConfig{
				APIKey:    "test-key",
				FromEmail: "coop@example.com",
				FromName:  "Coop",
			})
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			err := client.SendEmail(cancelled, request)

			var notificationErr *notification.NotificationError
			Expect(errors.As(err, &notificationErr)).To(BeTrue())
			Expect(err).To(MatchError(context.Canceled))
		})

		It("should reject a request without a recipient before calling the API", func() {
			client := notification.NewMailerSendClient(notification.MailerSendConfig{APIKey: "test-key"})
			request.To = "  "

			err := client.SendEmail(ctx, request)

			Expect(err).To(MatchError(notification.ErrNoRecipient))
		})
	})

	Context("LogClient", func() {
		It("should always succeed", func() {
			Expect(notification.NewLogClient().SendEmail(ctx, request)).To(Succeed())
		})
	})

	Context("NotificationError", func() {
		It("should include and unwrap the cause", func() {
			cause := errors.New("timeout")
			err := &notification.NotificationError{Message: "MailerSend API error", Err: cause}

			Expect(err.Error()).To(Equal("MailerSend API error: timeout"))
			Expect(errors.Is(err, cause)).To(BeTrue())
		})

		It("should print only the message without a cause", func() {
			err := &notification.NotificationError{Message: "no recipient"}
			Expect(err.Error()).To(Equal("no recipient"))
		})
	})
})
