package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/client"
	"coop-server/internal/coop/domain"
	"coop-server/internal/coop/httpapi"
	mockusecases "coop-server/test/unit/doubles/coop/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Client", func() {
	var (
		ctrl        *gomock.Controller
		mockService *mockusecases.MockCoopService
		server      *httptest.Server
		coop        *client.Client
		ctx         context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockService = mockusecases.NewMockCoopService(ctrl)
		router := http.NewServeMux()
		httpapi.NewCoopController(mockService).AddRoutes(router)
		server = httptest.NewServer(router)
		coop = client.New(server.URL + "/")
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
		ctrl.Finish()
	})

	Context("door", func() {
		It("should send the direction and return the door reading", func() {
			mockService.EXPECT().CommandDoor(gomock.Any(), domain.DoorClose).Return(int64(2), nil)

			value, err := coop.CommandDoor(ctx, domain.DoorClose)

			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(int64(2)))
		})

		It("should report a busy bus as ErrBusy", func() {
			mockService.EXPECT().CommandDoor(gomock.Any(), domain.DoorOpen).Return(int64(0), bus.ErrBusy)

			_, err := coop.CommandDoor(ctx, domain.DoorOpen)

			Expect(errors.Is(err, client.ErrBusy)).To(BeTrue())
			Expect(errors.Is(err, client.ErrUpstream)).To(BeFalse())

			var apiErr *client.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(apiErr.Code).To(Equal("bus_busy"))
			Expect(apiErr.Message).To(ContainSubstring("bus busy"))
		})

		It("should report transport faults as ErrUpstream", func() {
			mockService.EXPECT().CommandDoor(gomock.Any(), domain.DoorAuto).Return(int64(0), bus.ErrWrite)

			_, err := coop.CommandDoor(ctx, domain.DoorAuto)

			Expect(errors.Is(err, client.ErrUpstream)).To(BeTrue())
			Expect(errors.Is(err, client.ErrBusy)).To(BeFalse())
		})

		It("should carry the server message for a bad request", func() {
			_, err := coop.CommandDoor(ctx, domain.DoorDirection("up"))

			var apiErr *client.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(apiErr.Message).To(ContainSubstring("invalid door direction"))
		})
	})

	Context("reset and echo", func() {
		It("should return the reset count", func() {
			mockService.EXPECT().Reset(gomock.Any()).Return(int64(4), nil)

			value, err := coop.Reset(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(int64(4)))
		})

		It("should echo the data", func() {
			mockService.EXPECT().Echo(gomock.Any(), []byte("ping")).Return(int64(1), nil)

			value, err := coop.Echo(ctx, "ping")

			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(int64(1)))
		})
	})

	Context("readings", func() {
		It("should read every polled value", func() {
			mockService.EXPECT().Reading(gomock.Any(), domain.ReadingDoor).Return(int64(0))
			mockService.EXPECT().Reading(gomock.Any(), domain.ReadingUptime).Return(int64(3600))
			mockService.EXPECT().Reading(gomock.Any(), domain.ReadingLight).Return(int64(512))
			mockService.EXPECT().Reading(gomock.Any(), domain.ReadingTemp).Return(domain.NoReading)

			door, err := coop.DoorState(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(door).To(BeZero())

			uptime, err := coop.Uptime(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(uptime).To(Equal(int64(3600)))

			light, err := coop.Light(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(light).To(Equal(int64(512)))

			temp, err := coop.Temp(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(temp).To(Equal(domain.NoReading))
		})

		It("should ask for a live read when fresh", func() {
			mockService.EXPECT().RefreshReading(gomock.Any(), domain.ReadingTemp).Return(int64(18), nil)

			value, err := coop.Reading(ctx, domain.ReadingTemp, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(int64(18)))
		})
	})

	Context("times and status", func() {
		It("should parse the schedule times", func() {
			opening := time.Date(2026, 10, 16, 7, 32, 0, 0, time.UTC)
			closing := time.Date(2026, 10, 16, 18, 51, 0, 0, time.UTC)
			mockService.EXPECT().OpeningTime(gomock.Any()).Return(opening, nil)
			mockService.EXPECT().ClosingTime(gomock.Any()).Return(closing, nil)

			gotOpening, err := coop.OpeningTime(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(gotOpening.Equal(opening)).To(BeTrue())

			gotClosing, err := coop.ClosingTime(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(gotClosing.Equal(closing)).To(BeTrue())
		})

		It("should decode the status", func() {
			mockService.EXPECT().Status(gomock.Any()).Return(domain.Status{
				Door:            2,
				Mode:            5,
				IsClosing:       true,
				WriteErrorCount: 1,
			})

			status, err := coop.Status(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(status.Door).To(Equal(int64(2)))
			Expect(status.Mode).To(Equal(int64(5)))
			Expect(status.IsClosing).To(BeTrue())
			Expect(status.WriteErrorCount).To(Equal(int64(1)))
		})
	})

	It("should fail when the server is unreachable", func() {
		server.Close()

		_, err := coop.Status(ctx)

		Expect(err).To(HaveOccurred())
		var apiErr *client.APIError
		Expect(errors.As(err, &apiErr)).To(BeFalse())
	})

	It("should use a plain text error body as the message", func() {
		plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer plain.Close()

		_, err := client.New(plain.URL).Reset(ctx)

		var apiErr *client.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Message).To(Equal("maintenance"))
		Expect(errors.Is(err, client.ErrBusy)).To(BeTrue())
	})
})
