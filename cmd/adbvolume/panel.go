package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// ============================================================================
// Web panel: the two volume buttons served as a local page
// ============================================================================
//
// This file implements:
//   - A Hub that fans outcomes out to connected WebSocket clients
//   - Per-client pumps: readPump turns button clicks into Presses,
//     writePump delivers outcome broadcasts
//   - PanelServer, which serves the page and the /ws endpoint
//
// Notes:
//   - Clicks never touch the Controller directly; they are queued for the
//     event loop like every other input.
//   - Slow clients are disconnected when their send buffer fills.
//   - Outbound messages are JSON text frames with an envelope: {type, ts, data}.
//
// ============================================================================

// wsPressData is the JSON `data` payload for press_accepted / press_dropped.
type wsPressData struct {
	Direction Direction `json:"direction"`
	Source    Source    `json:"source"`
}

// envelope is the wire format envelope for outbound WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// ============================================================================
// Hub
// ============================================================================

const (
	// clientQueue holds outcomes not yet written to one panel. A panel that
	// falls this far behind is disconnected.
	clientQueue = 16

	// outcomeQueue holds serialized outcomes waiting for fan-out.
	outcomeQueue = 64
)

// Hub fans press outcomes out to every connected panel.
//
// Run owns client membership. join, leave and publish may be called from
// any goroutine; once Run has returned they no longer block.
type Hub struct {
	logger *slog.Logger

	outcomes chan []byte
	joins    chan *Client
	leaves   chan *Client
	done     chan struct{}

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		outcomes: make(chan []byte, outcomeQueue),
		joins:    make(chan *Client),
		leaves:   make(chan *Client),
		done:     make(chan struct{}),
		clients:  make(map[*Client]struct{}),
	}
}

// Run processes membership changes and outcomes until ctx is canceled,
// then disconnects every panel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			h.logger.Debug("panel hub stopped")
			return

		case c := <-h.joins:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("panel client connected", "client", c.id, "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.leaves:
			h.disconnect(c, "closed")

		case msg := <-h.outcomes:
			var slow []*Client
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.disconnect(c, "slow")
			}
		}
	}
}

// join adds c. It reports false when the hub has stopped or ctx ends first.
func (h *Hub) join(ctx context.Context, c *Client) bool {
	select {
	case h.joins <- c:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// leave removes c. It returns immediately once the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.leaves <- c:
	case <-h.done:
	}
}

// publish queues a serialized outcome without blocking. Outcomes are
// dropped when the queue is full or the hub has stopped.
func (h *Hub) publish(msg []byte) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.outcomes <- msg:
	default:
		h.logger.Warn("panel outcome queue full, dropping", "bytes", len(msg))
	}
}

// Len reports the number of connected panels.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) disconnect(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		h.drop(c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("panel client disconnected", "client", c.id, "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

// drop removes c from the set and closes it. Callers hold h.mu. Only Run
// calls drop, so send is closed at most once.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	// Closing send tells writePump to exit.
	close(c.send)
}

// ============================================================================
// Client
// ============================================================================

// Client is one connected panel page.
type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte

	id         string
	remoteAddr string
	logger     *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, clientQueue),
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait = 5 * time.Second

	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	maxInboundMessage = 1024
)

// closeStatus extracts a websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("ping", err)
				return
			}
		}
	}
}

// readPump turns inbound press messages into Presses for the event loop.
// It exits on read error, then leaves the hub.
func (c *Client) readPump(ctx context.Context, presses chan<- Press) {
	c.conn.SetReadLimit(maxInboundMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(defaultInboundPerSec), defaultInboundBurst)

	for {
		if ctx.Err() != nil {
			return
		}

		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("read", err)
			if c.hub != nil {
				c.hub.leave(c)
			}
			return
		}
		// Any traffic proves the peer is alive.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow() {
			c.logger.Debug("panel client rate limited", "client", c.id)
			continue
		}

		p, err := UnmarshalPress(msg)
		if err != nil {
			c.logger.Warn("panel message rejected", "client", c.id, "error", err)
			continue
		}
		p.Source = SourcePanel

		select {
		case presses <- p:
		default:
			c.logger.Warn("press queue full, dropping click", "client", c.id)
		}
	}
}

func (c *Client) logExit(op string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Debug("ws pump exiting (close)", "client", c.id, "op", op, "code", code, "reason", text)
		return
	}
	c.logger.Debug("ws pump exiting", "client", c.id, "op", op, "error", err)
}

// ============================================================================
// HTTP handlers
// ============================================================================

type PanelServer struct {
	logger *slog.Logger
	hub    *Hub
	title  string

	presses chan<- Press
}

// NewPanelServer constructs the panel. Call Register on a mux and start
// Hub().Run(ctx).
func NewPanelServer(logger *slog.Logger, presses chan<- Press, title string) *PanelServer {
	return &PanelServer{
		logger:  logger,
		hub:     NewHub(logger),
		title:   title,
		presses: presses,
	}
}

func (s *PanelServer) Hub() *Hub { return s.hub }

// Register installs the page at "/" and the websocket at "/ws".
func (s *PanelServer) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleWS)
}

// Publish broadcasts a press outcome to every connected panel.
func (s *PanelServer) Publish(o Outcome) {
	typ := "press_dropped"
	if o.Accepted {
		typ = "press_accepted"
	}
	ts := o.At.UTC()
	if o.At.IsZero() {
		ts = time.Now().UTC()
	}

	msg, err := json.Marshal(envelope{
		Type: typ,
		Ts:   &ts,
		Data: wsPressData{Direction: o.Press.Direction, Source: o.Press.Source},
	})
	if err != nil {
		s.logger.Warn("panel outcome marshal failed", "error", err)
		return
	}
	s.hub.publish(msg)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The default same-origin check applies: only the page we serve may connect.
}

func (s *PanelServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := newClient(s.hub, conn, r.RemoteAddr, s.logger)
	if !s.hub.join(r.Context(), client) {
		_ = conn.Close()
		return
	}

	// Pumps must outlive the request context, which net/http cancels when
	// this handler returns. The hub and socket errors end them.
	go client.writePump(context.Background())
	go client.readPump(context.Background(), s.presses)
}

func (s *PanelServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := panelPage.Execute(w, struct{ Title string }{Title: s.title}); err != nil {
		s.logger.Warn("panel page render failed", "error", err)
	}
}

var panelPage = template.Must(template.New("panel").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: sans-serif; margin: 0; width: 250px; height: 120px; }
  button { position: absolute; top: 30px; width: 80px; height: 40px; }
  #up { left: 30px; }
  #down { left: 130px; }
</style>
</head>
<body>
<button id="up" data-direction="up">Volume +</button>
<button id="down" data-direction="down">Volume -</button>
<script>
(function () {
  var ws;
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
  document.querySelectorAll("button").forEach(function (b) {
    b.addEventListener("click", function () {
      if (!ws || ws.readyState !== WebSocket.OPEN) { return; }
      ws.send(JSON.stringify({type: "press", data: {direction: b.dataset.direction}}));
    });
  });
})();
</script>
</body>
</html>
`))

// runHTTPServer serves handler on addr and shuts down gracefully when ctx is
// canceled.
func runHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		// ListenAndServe returns http.ErrServerClosed on Shutdown; treat that as clean exit.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	logger.Info("panel listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
