package httpapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/domain"
	"coop-server/internal/coop/httpapi"
	"coop-server/internal/infra/httpserver"
	mockusecases "coop-server/test/unit/doubles/coop/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("CoopController", func() {
	var (
		ctrl        *gomock.Controller
		mockService *mockusecases.MockCoopService
		router      *http.ServeMux
		recorder    *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockService = mockusecases.NewMockCoopService(ctrl)
		router = http.NewServeMux()
		httpapi.NewCoopController(mockService).AddRoutes(router)
		recorder = httptest.NewRecorder()
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	serve := func(method, target, body string) {
		var request *http.Request
		if body == "" {
			request = httptest.NewRequest(method, target, nil)
		} else {
			request = httptest.NewRequest(method, target, strings.NewReader(body))
		}
		router.ServeHTTP(recorder, request)
	}

	decodeInt := func() int64 {
		var value int64
		Expect(json.Unmarshal(recorder.Body.Bytes(), &value)).To(Succeed())
		return value
	}

	decodeError := func() httpserver.ErrorResponse {
		var response httpserver.ErrorResponse
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		return response
	}

	Context("readings", func() {
		DescribeTable("serves the cached value",
			func(path string, kind domain.ReadingKind) {
				mockService.EXPECT().Reading(gomock.Any(), kind).Return(int64(42))

				serve("GET", path, "")

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(decodeInt()).To(Equal(int64(42)))
			},
			Entry("door", "/coop/door", domain.ReadingDoor),
			Entry("temp", "/coop/temp", domain.ReadingTemp),
			Entry("light", "/coop/light", domain.ReadingLight),
			Entry("uptime", "/coop/uptime", domain.ReadingUptime),
		)

		It("should report -1 when nothing was read yet", func() {
			mockService.EXPECT().Reading(gomock.Any(), domain.ReadingTemp).Return(domain.NoReading)

			serve("GET", "/coop/temp", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(decodeInt()).To(Equal(int64(-1)))
		})

		It("should read the bus when fresh is requested", func() {
			mockService.EXPECT().RefreshReading(gomock.Any(), domain.ReadingDoor).Return(int64(2), nil)

			serve("GET", "/coop/door?fresh=true", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(decodeInt()).To(Equal(int64(2)))
		})

		It("should answer 503 with Retry-After when a fresh read finds the bus busy", func() {
			mockService.EXPECT().RefreshReading(gomock.Any(), domain.ReadingLight).Return(int64(0), bus.ErrBusy)

			serve("GET", "/coop/light?fresh=true", "")

			Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(recorder.Header().Get("Retry-After")).To(Equal("1"))
			Expect(decodeError().Code).To(Equal("bus_busy"))
		})

		It("should answer 404 for an unknown reading", func() {
			serve("GET", "/coop/humidity", "")

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("schedule times", func() {
		var opening, closing time.Time

		BeforeEach(func() {
			opening = time.Date(2026, 6, 1, 6, 15, 0, 0, time.UTC)
			closing = time.Date(2026, 6, 1, 21, 40, 0, 0, time.UTC)
		})

		It("should return the opening time as RFC3339", func() {
			mockService.EXPECT().OpeningTime(gomock.Any()).Return(opening, nil)

			serve("GET", "/coop/opentime", "")

			var value string
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(recorder.Body.Bytes(), &value)).To(Succeed())
			Expect(value).To(Equal("2026-06-01T06:15:00Z"))
		})

		It("should return the closing time as RFC3339", func() {
			mockService.EXPECT().ClosingTime(gomock.Any()).Return(closing, nil)

			serve("GET", "/coop/closetime", "")

			var value string
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(recorder.Body.Bytes(), &value)).To(Succeed())
			Expect(value).To(Equal("2026-06-01T21:40:00Z"))
		})

		It("should fail when the schedule cannot be computed", func() {
			mockService.EXPECT().OpeningTime(gomock.Any()).Return(time.Time{}, fmt.Errorf("polar night"))

			serve("GET", "/coop/opentime", "")

			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Context("status", func() {
		It("should return the snapshot", func() {
			mockService.EXPECT().Status(gomock.Any()).Return(domain.Status{
				Door:           2,
				Temp:           21,
				Mode:           5,
				ReadErrorCount: 3,
			})

			serve("GET", "/coop/status", "")

			var status domain.Status
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(recorder.Body.Bytes(), &status)).To(Succeed())
			Expect(status.Door).To(Equal(int64(2)))
			Expect(status.Mode).To(Equal(int64(5)))
			Expect(status.ReadErrorCount).To(Equal(int64(3)))
		})
	})

	Context("door", func() {
		DescribeTable("forwards the direction",
			func(dir domain.DoorDirection, result int64) {
				mockService.EXPECT().CommandDoor(gomock.Any(), dir).Return(result, nil)

				serve("PUT", "/coop/door", fmt.Sprintf(`{"dir": %q}`, dir))

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(decodeInt()).To(Equal(result))
			},
			Entry("open", domain.DoorOpen, int64(0)),
			Entry("close", domain.DoorClose, int64(2)),
			Entry("auto", domain.DoorAuto, int64(0)),
		)

		It("should reject an unknown direction", func() {
			serve("PUT", "/coop/door", `{"dir": "sideways"}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a malformed body", func() {
			serve("PUT", "/coop/door", `{"dir":`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("maps bus failures",
			func(err error, status int, code string) {
				mockService.EXPECT().CommandDoor(gomock.Any(), domain.DoorClose).Return(int64(0), err)

				serve("PUT", "/coop/door", `{"dir": "close"}`)

				Expect(recorder.Code).To(Equal(status))
				Expect(decodeError().Code).To(Equal(code))
			},
			Entry("busy", fmt.Errorf("close door: %w", bus.ErrBusy), http.StatusServiceUnavailable, "bus_busy"),
			Entry("write", fmt.Errorf("%w: nack", bus.ErrWrite), http.StatusBadGateway, "bus_write"),
			Entry("read", fmt.Errorf("%w: short", bus.ErrRead), http.StatusBadGateway, "bus_read"),
			Entry("timeout", fmt.Errorf("%w: %w", bus.ErrRead, bus.ErrTransportTimeout), http.StatusBadGateway, "transport_timeout"),
		)

		It("should not ask transport faults to retry", func() {
			mockService.EXPECT().CommandDoor(gomock.Any(), domain.DoorOpen).Return(int64(0), bus.ErrWrite)

			serve("PUT", "/coop/door", `{"dir": "open"}`)

			Expect(recorder.Header().Get("Retry-After")).To(BeEmpty())
		})
	})

	Context("reset", func() {
		It("should return the reset count", func() {
			mockService.EXPECT().Reset(gomock.Any()).Return(int64(3), nil)

			serve("PUT", "/coop/reset", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(decodeInt()).To(Equal(int64(3)))
		})

		It("should answer 503 when the bus is busy", func() {
			mockService.EXPECT().Reset(gomock.Any()).Return(int64(0), bus.ErrBusy)

			serve("PUT", "/coop/reset", "")

			Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("echo", func() {
		It("should forward the data as arguments", func() {
			mockService.EXPECT().Echo(gomock.Any(), []byte("test")).Return(int64(1), nil)

			serve("POST", "/coop/echo", `{"data": "test"}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(decodeInt()).To(Equal(int64(1)))
		})

		It("should reject a malformed body", func() {
			serve("POST", "/coop/echo", `not json`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
