package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/bus/simulator"
	"coop-server/internal/coop/domain"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/cache"
	mockbus "coop-server/test/unit/doubles/coop/bus"
	mockusecases "coop-server/test/unit/doubles/coop/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var errTransport = errors.New("i2c bus error")

var testSchedule = usecases.SolarSchedule{Latitude: 35, Longitude: -79}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newReadingsCache() *cache.RistrettoCache {
	readings, err := cache.New(nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(readings.Close)
	return readings
}

func drain(subscription async.Subscription) []async.BrokerMessage {
	var messages []async.BrokerMessage
	for {
		select {
		case msg := <-subscription.Receiver:
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}

func eventNames(messages []async.BrokerMessage) []string {
	names := make([]string, 0, len(messages))
	for _, msg := range messages {
		names = append(names, msg.Event)
	}
	return names
}

var _ = Describe("CoopService", func() {
	var (
		ctx    context.Context
		broker *async.LocalBroker
		events async.Subscription
		clock  *testClock
	)

	BeforeEach(func() {
		ctx = context.Background()
		broker = async.NewLocalBroker()
		DeferCleanup(broker.Stop)

		var err error
		events, err = broker.Subscribe(usecases.EventsTopic)
		Expect(err).NotTo(HaveOccurred())

		clock = &testClock{now: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)}
	})

	Context("over a mocked transport", func() {
		var (
			ctrl          *gomock.Controller
			mockTransport *mockbus.MockTransport
			service       *usecases.SimpleCoopService
		)

		BeforeEach(func() {
			ctrl = gomock.NewController(GinkgoT())
			mockTransport = mockbus.NewMockTransport(ctrl)
			controller := bus.NewController(mockTransport, bus.Options{})
			service = usecases.NewCoopService(controller, newReadingsCache(), broker, testSchedule, usecases.CoopServiceConfig{}).
				WithClock(clock.Now)
		})

		It("should initialize properly", func() {
			status := service.Status(ctx)

			Expect(status.ClosingTime).To(BeTemporally(">", status.OpeningTime))
			Expect(status.IsOpening).To(BeFalse())
			Expect(status.IsClosing).To(BeFalse())
			Expect(status.ReadErrorCount).To(BeZero())
			Expect(status.WriteErrorCount).To(BeZero())
			Expect(status.BusyRejectCount).To(BeZero())
			Expect(status.AutoResetCount).To(BeZero())
			Expect(status.LastSuccessfulRead).To(Equal(domain.NoReading))
			Expect(status.LastSuccessfulWrite).To(Equal(domain.NoReading))
			Expect(status.LastError).To(Equal(domain.NoReading))
			Expect(status.LongestUptime).To(BeZero())
			Expect(status.Door).To(Equal(domain.NoReading))
			Expect(status.Temp).To(Equal(domain.NoReading))
			Expect(status.Light).To(Equal(domain.NoReading))
			Expect(status.Uptime).To(Equal(domain.NoReading))
			Expect(status.Mode).To(Equal(domain.NoReading))
		})

		It("closeDoor should send close door command successfully", func() {
			mockTransport.EXPECT().Write(gomock.Any(), byte(domain.OpcodeCloseDoor), gomock.Any()).Return(nil)
			mockTransport.EXPECT().Read(gomock.Any(), bus.ResponseSize).Return([]byte{0, 0, 0, 2}, nil)

			value, err := service.CloseDoor(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(int64(2)))
			Expect(service.Reading(ctx, domain.ReadingDoor)).To(Equal(int64(2)))
			Expect(service.Status(ctx).Mode).To(Equal(int64(domain.OpcodeCloseDoor)))
			Expect(service.Status(ctx).LastSuccessfulWrite).To(Equal(clock.Now().UnixMilli()))
			Expect(eventNames(drain(events))).To(ContainElement(string(domain.EventDoorCommand)))
		})

		It("openDoor should send open door command successfully", func() {
			mockTransport.EXPECT().Write(gomock.Any(), byte(domain.OpcodeOpenDoor), gomock.Any()).Return(nil)
			mockTransport.EXPECT().Read(gomock.Any(), bus.ResponseSize).Return([]byte{0, 0, 0, 0}, nil)

			value, err := service.OpenDoor(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeZero())
			Expect(service.Reading(ctx, domain.ReadingDoor)).To(BeZero())
		})

		It("should send echo command successfully", func() {
			mockTransport.EXPECT().Write(gomock.Any(), byte(domain.OpcodeEcho), []byte("test")).Return(nil)
			mockTransport.EXPECT().Read(gomock.Any(), bus.ResponseSize).Return([]byte{0, 0, 0, 1}, nil)

			Expect(service.Echo(ctx, []byte("test"))).To(Equal(int64(1)))
		})

		It("should send reset command successfully", func() {
			mockTransport.EXPECT().Write(gomock.Any(), byte(domain.OpcodeReset), gomock.Any()).Return(nil)
			mockTransport.EXPECT().Read(gomock.Any(), bus.ResponseSize).Return([]byte{0, 0, 0, 5}, nil)

			Expect(service.Reset(ctx)).To(Equal(int64(5)))
		})

		It("should record read errors for a poll followed by a door command", func() {
			mockTransport.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(5)
			mockTransport.EXPECT().Read(gomock.Any(), bus.ResponseSize).Return(nil, errTransport).Times(5)

			Expect(service.Poll(ctx)).To(MatchError(bus.ErrRead))
			_, err := service.OpenDoor(ctx)
			Expect(err).To(MatchError(bus.ErrRead))

			status := service.Status(ctx)
			Expect(status.ReadErrorCount).To(Equal(int64(5)))
			Expect(status.WriteErrorCount).To(BeZero())
			Expect(status.LastError).To(Equal(clock.Now().UnixMilli()))
			Expect(status.LastSuccessfulRead).To(Equal(domain.NoReading))
			Expect(status.Door).To(Equal(domain.NoReading))
			Expect(status.Mode).To(Equal(domain.NoReading))
			Expect(eventNames(drain(events))).To(HaveEach(string(domain.EventBusError)))
		})

		It("should record write errors", func() {
			mockTransport.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(errTransport)

			_, err := service.Reset(ctx)

			Expect(err).To(MatchError(bus.ErrWrite))
			Expect(service.Status(ctx).WriteErrorCount).To(Equal(int64(1)))
			Expect(service.Status(ctx).ReadErrorCount).To(BeZero())
			Expect(service.Status(ctx).LastSuccessfulWrite).To(Equal(domain.NoReading))
		})

		It("should reject unknown door directions without touching the bus", func() {
			_, err := service.CommandDoor(ctx, domain.DoorDirection("sideways"))

			Expect(err).To(MatchError(domain.ErrInvalidDirection))
		})

		It("should reject unknown readings without touching the bus", func() {
			_, err := service.RefreshReading(ctx, domain.ReadingKind("humidity"))

			Expect(err).To(MatchError(domain.ErrUnknownReading))
		})
	})

	Context("over a mocked bus", func() {
		var (
			ctrl    *gomock.Controller
			mockBus *mockusecases.MockCoopBus
			service *usecases.SimpleCoopService
		)

		BeforeEach(func() {
			ctrl = gomock.NewController(GinkgoT())
			mockBus = mockusecases.NewMockCoopBus(ctrl)
			service = usecases.NewCoopService(mockBus, newReadingsCache(), broker, testSchedule,
				usecases.CoopServiceConfig{AutoResetThreshold: 1}).WithClock(clock.Now)
		})

		It("should count busy rejections without triggering an auto reset", func() {
			mockBus.EXPECT().SendCommand(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(0), bus.ErrBusy).Times(4)

			Expect(service.Poll(ctx)).To(MatchError(bus.ErrBusy))

			status := service.Status(ctx)
			Expect(status.BusyRejectCount).To(Equal(int64(4)))
			Expect(status.ReadErrorCount).To(BeZero())
			Expect(status.AutoResetCount).To(BeZero())
			Expect(drain(events)).To(BeEmpty())
		})

		It("should report the door as opening until a read confirms it", func() {
			gomock.InOrder(
				mockBus.EXPECT().SendCommand(gomock.Any(), domain.OpcodeOpenDoor, gomock.Any()).Return(uint32(2), nil),
				mockBus.EXPECT().SendCommand(gomock.Any(), domain.OpcodeReadDoor, gomock.Any()).Return(uint32(0), nil),
			)

			_, err := service.OpenDoor(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Status(ctx).IsOpening).To(BeTrue())

			Expect(service.RefreshReading(ctx, domain.ReadingDoor)).To(BeZero())
			Expect(service.Status(ctx).IsOpening).To(BeFalse())
		})

		It("should report the door as closing until a read confirms it", func() {
			gomock.InOrder(
				mockBus.EXPECT().SendCommand(gomock.Any(), domain.OpcodeCloseDoor, gomock.Any()).Return(uint32(0), nil),
				mockBus.EXPECT().SendCommand(gomock.Any(), domain.OpcodeReadDoor, gomock.Any()).Return(uint32(2), nil),
			)

			_, err := service.CloseDoor(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Status(ctx).IsClosing).To(BeTrue())

			_, err = service.RefreshReading(ctx, domain.ReadingDoor)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Status(ctx).IsClosing).To(BeFalse())
		})

		It("should expire cached readings", func() {
			service = usecases.NewCoopService(mockBus, newReadingsCache(), broker, testSchedule,
				usecases.CoopServiceConfig{ReadingsMaxAge: 50 * time.Millisecond})
			mockBus.EXPECT().SendCommand(gomock.Any(), domain.OpcodeReadTemp, gomock.Any()).Return(uint32(21), nil)

			Expect(service.RefreshReading(ctx, domain.ReadingTemp)).To(Equal(int64(21)))
			Expect(service.Reading(ctx, domain.ReadingTemp)).To(Equal(int64(21)))

			Eventually(func() int64 {
				return service.Reading(ctx, domain.ReadingTemp)
			}).WithTimeout(2 * time.Second).Should(Equal(domain.NoReading))
		})
	})

	Context("over the simulator", func() {
		var (
			device  *simulator.Device
			service *usecases.SimpleCoopService
		)

		BeforeEach(func() {
			device = simulator.New(simulator.WithClock(clock.Now))
			controller := bus.NewController(device, bus.Options{})
			service = usecases.NewCoopService(controller, newReadingsCache(), broker, testSchedule,
				usecases.CoopServiceConfig{AutoResetThreshold: 2}).WithClock(clock.Now)
		})

		It("should poll every reading in order", func() {
			device.SetTemp(18)
			device.SetLight(420)
			clock.Advance(90 * time.Second)

			Expect(service.Poll(ctx)).To(Succeed())

			Expect(device.Writes()).To(Equal([]byte{
				byte(domain.OpcodeReadDoor),
				byte(domain.OpcodeReadTemp),
				byte(domain.OpcodeReadLight),
				byte(domain.OpcodeUpTime),
			}))
			status := service.Status(ctx)
			Expect(status.Door).To(Equal(int64(simulator.DoorClosedReading)))
			Expect(status.Temp).To(Equal(int64(18)))
			Expect(status.Light).To(Equal(int64(420)))
			Expect(status.Uptime).To(Equal(int64(90)))
			Expect(status.LongestUptime).To(Equal(int64(90)))
			Expect(status.LastSuccessfulRead).To(Equal(clock.Now().UnixMilli()))
		})

		It("should notice a board restart from a shorter uptime", func() {
			clock.Advance(time.Hour)
			Expect(service.RefreshReading(ctx, domain.ReadingUptime)).To(Equal(int64(3600)))

			device.Reboot()
			clock.Advance(time.Minute)
			Expect(service.RefreshReading(ctx, domain.ReadingUptime)).To(Equal(int64(60)))

			Expect(service.Status(ctx).LongestUptime).To(Equal(int64(3600)))

			var restarted *domain.DeviceRestartedEvent
			for _, msg := range drain(events) {
				if event, ok := msg.Value.(domain.DeviceRestartedEvent); ok {
					restarted = &event
				}
			}
			Expect(restarted).NotTo(BeNil())
			Expect(restarted.PreviousUptime).To(Equal(int64(3600)))
			Expect(restarted.CurrentUptime).To(Equal(int64(60)))
		})

		It("should forget the cached uptime after a reset", func() {
			clock.Advance(time.Hour)
			Expect(service.RefreshReading(ctx, domain.ReadingUptime)).To(Equal(int64(3600)))
			Expect(service.RefreshReading(ctx, domain.ReadingTemp)).To(Equal(int64(21)))

			Expect(service.Reset(ctx)).To(Equal(int64(1)))

			Expect(service.Reading(ctx, domain.ReadingUptime)).To(Equal(domain.NoReading))
			Expect(service.Reading(ctx, domain.ReadingTemp)).To(Equal(int64(21)))
			Expect(service.Status(ctx).LongestUptime).To(Equal(int64(3600)))
		})

		It("should reset the board after consecutive failed polls", func() {
			device.FailNextReads(2 * len(domain.PolledReadings))

			Expect(service.Poll(ctx)).To(HaveOccurred())
			Expect(service.Status(ctx).AutoResetCount).To(BeZero())

			Expect(service.Poll(ctx)).To(HaveOccurred())

			status := service.Status(ctx)
			Expect(status.AutoResetCount).To(Equal(int64(1)))
			Expect(status.ReadErrorCount).To(Equal(int64(8)))
			Expect(device.Writes()).To(HaveLen(9))
			Expect(device.Writes()[8]).To(Equal(byte(domain.OpcodeReset)))

			var reset *domain.AutoResetEvent
			for _, msg := range drain(events) {
				if event, ok := msg.Value.(domain.AutoResetEvent); ok {
					reset = &event
				}
			}
			Expect(reset).NotTo(BeNil())
			Expect(reset.ConsecutiveFailures).To(Equal(2))
			Expect(reset.Result).To(Equal(int64(1)))
			Expect(reset.Err).To(BeEmpty())
		})

		It("should start counting again after a successful poll", func() {
			device.FailNextReads(len(domain.PolledReadings))
			Expect(service.Poll(ctx)).To(HaveOccurred())
			Expect(service.Poll(ctx)).To(Succeed())

			device.FailNextReads(len(domain.PolledReadings))
			Expect(service.Poll(ctx)).To(HaveOccurred())

			Expect(service.Status(ctx).AutoResetCount).To(BeZero())
		})

		It("should serve opening and closing times from the schedule", func() {
			opening, err := service.OpeningTime(ctx)
			Expect(err).NotTo(HaveOccurred())
			closing, err := service.ClosingTime(ctx)
			Expect(err).NotTo(HaveOccurred())

			expectedOpening, expectedClosing, err := testSchedule.Times(clock.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(opening).To(BeTemporally("==", expectedOpening))
			Expect(closing).To(BeTemporally("==", expectedClosing))
		})
	})
})
