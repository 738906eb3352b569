package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"coop-server/internal/coop/domain"
	"coop-server/internal/coop/httpapi"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/async"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CoopEventsWebSocketController", func() {
	var (
		broker     *async.LocalBroker
		controller *httpapi.CoopEventsWebSocketController
		server     *httptest.Server
		conn       *websocket.Conn
	)

	BeforeEach(func() {
		broker = async.NewLocalBroker()
		controller = httpapi.NewCoopEventsWebSocketController(broker)
		router := http.NewServeMux()
		controller.AddRoutes(router)
		server = httptest.NewServer(router)

		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/coop/ws"
		var err error
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		Eventually(controller.Clients).Should(Equal(1))
	})

	AfterEach(func() {
		conn.Close()
		controller.Shutdown()
		server.Close()
		broker.Stop()
	})

	It("should stream coop events to connected clients", func() {
		err := broker.Publish(context.Background(), usecases.EventsTopic, async.BrokerMessage{
			Event: string(domain.EventReadingUpdated),
			Value: domain.ReadingEvent{Kind: domain.ReadingTemp, Value: 19},
		})
		Expect(err).NotTo(HaveOccurred())

		var message struct {
			Type string `json:"type"`
			Data struct {
				Kind  string `json:"kind"`
				Value int64  `json:"value"`
			} `json:"data"`
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		Expect(conn.ReadJSON(&message)).To(Succeed())
		Expect(message.Type).To(Equal("reading_updated"))
		Expect(message.Data.Kind).To(Equal("temp"))
		Expect(message.Data.Value).To(Equal(int64(19)))
	})

	It("should forget clients that disconnect", func() {
		Expect(conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))).To(Succeed())

		Eventually(controller.Clients).Should(BeZero())
	})
})
