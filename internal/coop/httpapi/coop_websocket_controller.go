package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"coop-server/internal/coop/httpapi/internal"
	"coop-server/internal/coop/usecases"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/httpserver"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the CORS layer of the server.
		return true
	},
}

type CoopEventsWebSocketController struct {
	broker       async.InternalBroker
	subscription async.Subscription
	clients      map[*websocket.Conn]bool
	clientsMux   sync.RWMutex
	broadcast    chan internal.CoopEventMessage
	register     chan *websocket.Conn
	unregister   chan *websocket.Conn
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewCoopEventsWebSocketController(broker async.InternalBroker) *CoopEventsWebSocketController {
	ctx, cancel := context.WithCancel(context.Background())

	wsc := &CoopEventsWebSocketController{
		broker:     broker,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan internal.CoopEventMessage, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		ctx:        ctx,
		cancel:     cancel,
	}

	subscription, err := broker.Subscribe(usecases.EventsTopic)
	if err != nil {
		slog.Error("failed to subscribe to coop events", slog.Any("error", err))
	}
	wsc.subscription = subscription

	go wsc.run()

	return wsc
}

var _ httpserver.Controller = (*CoopEventsWebSocketController)(nil)

func (wsc *CoopEventsWebSocketController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /coop/ws", wsc.handleWebSocket())
}

// Clients returns the number of connected websocket clients.
func (wsc *CoopEventsWebSocketController) Clients() int {
	wsc.clientsMux.RLock()
	defer wsc.clientsMux.RUnlock()
	return len(wsc.clients)
}

func (wsc *CoopEventsWebSocketController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.Any("error", err))
			return
		}

		slog.Info("new websocket connection established", slog.String("remote_addr", r.RemoteAddr))

		select {
		case wsc.register <- conn:
		case <-wsc.ctx.Done():
			conn.Close()
			return
		}

		go wsc.handlePingPong(conn)
		go wsc.handleClient(conn)
	}
}

func (wsc *CoopEventsWebSocketController) handleClient(conn *websocket.Conn) {
	defer func() {
		select {
		case wsc.unregister <- conn:
		case <-wsc.ctx.Done():
		}
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", slog.Any("error", err))
			} else {
				slog.Debug("websocket connection closed", slog.Any("error", err))
			}
			return
		}
	}
}

func (wsc *CoopEventsWebSocketController) handlePingPong(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-wsc.ctx.Done():
			return
		case <-ticker.C:
			wsc.clientsMux.RLock()
			_, registered := wsc.clients[conn]
			var err error
			if registered {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			wsc.clientsMux.RUnlock()
			if !registered || err != nil {
				return
			}
		}
	}
}

func (wsc *CoopEventsWebSocketController) run() {
	defer wsc.broker.Unsubscribe(usecases.EventsTopic, wsc.subscription)

	for {
		select {
		case <-wsc.ctx.Done():
			return

		case client := <-wsc.register:
			wsc.clientsMux.Lock()
			wsc.clients[client] = true
			total := len(wsc.clients)
			wsc.clientsMux.Unlock()
			slog.Info("websocket client registered", slog.Int("total_clients", total))

		case client := <-wsc.unregister:
			wsc.clientsMux.Lock()
			if _, ok := wsc.clients[client]; ok {
				delete(wsc.clients, client)
				client.Close()
			}
			total := len(wsc.clients)
			wsc.clientsMux.Unlock()
			slog.Info("websocket client unregistered", slog.Int("total_clients", total))

		case message := <-wsc.broadcast:
			wsc.write(message)

		case brokerMsg, ok := <-wsc.subscription.Receiver:
			if !ok {
				slog.Info("coop events subscription closed")
				return
			}
			select {
			case wsc.broadcast <- internal.CoopEventMessage{
				Type:      brokerMsg.Event,
				Timestamp: time.Now(),
				Data:      brokerMsg.Value,
			}:
			default:
				slog.Warn("broadcast channel full, dropping message", slog.String("event", brokerMsg.Event))
			}
		}
	}
}

func (wsc *CoopEventsWebSocketController) write(message internal.CoopEventMessage) {
	wsc.clientsMux.Lock()
	defer wsc.clientsMux.Unlock()

	for client := range wsc.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(message); err != nil {
			slog.Error("failed to write message to websocket client", slog.Any("error", err))
			client.Close()
			delete(wsc.clients, client)
		}
	}
}

func (wsc *CoopEventsWebSocketController) Shutdown() {
	slog.Info("shutting down coop events websocket controller")
	wsc.cancel()

	wsc.clientsMux.Lock()
	for client := range wsc.clients {
		client.Close()
	}
	clear(wsc.clients)
	wsc.clientsMux.Unlock()
}
