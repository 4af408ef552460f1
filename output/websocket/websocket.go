// Package websocket streams curve points to connected clients. Each client
// subscribes to variable names over a small JSON protocol; the server
// registers one curve per subscription and forwards every appended point as
// a JSON frame. It transports points only; plotting stays client-side.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/metric"
	"github.com/c360/plotstream/plot"
)

// Config holds configuration for the websocket point server.
type Config struct {
	// Addr is the listen address, e.g. ":8081".
	Addr string
	// Path is the websocket endpoint path.
	Path string
	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
	// Metrics, when set, receives server instrumentation.
	Metrics *metric.MetricsRegistry
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8081",
		Path:         "/plot",
		WriteTimeout: 5 * time.Second,
	}
}

// subscribeRequest is the client-to-server frame.
type subscribeRequest struct {
	// Action is "subscribe" or "unsubscribe".
	Action string `json:"action"`
	// Variable is the signal identifier to plot.
	Variable string `json:"variable"`
}

// pointFrame is the server-to-client frame.
type pointFrame struct {
	Variable string  `json:"variable"`
	Time     float64 `json:"time"`
	Value    float64 `json:"value"`
}

// errorFrame reports a rejected request to the client.
type errorFrame struct {
	Error string `json:"error"`
}

// sendQueueSize bounds the per-client frame queue. Points are dropped, not
// buffered unboundedly, when a client cannot keep up: AddPoint is called
// with the handler lock held and must never block on the network.
const sendQueueSize = 256

// clientConn is one connected client. All frames go through the send queue;
// a single writer goroutine drains it, as gorilla/websocket allows only one
// concurrent writer per connection.
type clientConn struct {
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time

	mu      sync.Mutex
	handles map[string]plot.Handle
}

// close stops the writer exactly once. The send channel itself is never
// closed, so late producers cannot panic.
func (c *clientConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Server is the websocket point streamer.
type Server struct {
	cfg     Config
	handler *plot.CurveHandler
	logger  *component.Logger
	metrics *serverMetrics

	server *http.Server

	mu      sync.Mutex
	state   component.State
	clients map[*clientConn]struct{}
}

var _ component.LifecycleComponent = (*Server)(nil)

// NewServer creates a point streamer over the given curve handler.
func NewServer(cfg Config, handler *plot.CurveHandler, logger *component.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		metrics: newServerMetrics(cfg.Metrics),
		state:   component.StateCreated,
		clients: make(map[*clientConn]struct{}),
	}
}

// Meta implements component.LifecycleComponent.
func (s *Server) Meta() component.Metadata {
	return component.Metadata{
		Name:        "websocket-output",
		Type:        "output",
		Description: "Streams curve points to websocket clients",
		Version:     "1.0.0",
	}
}

// Initialize builds the HTTP server.
func (s *Server) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != component.StateCreated {
		return errors.ErrAlreadyStarted
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleConnection)
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.state = component.StateInitialized
	return nil
}

// Start serves websocket connections until Stop.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	if s.state != component.StateInitialized {
		s.mu.Unlock()
		return errors.ErrNotStarted
	}
	s.state = component.StateStarted
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("websocket output listening", "addr", s.cfg.Addr, "path", s.cfg.Path)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.state = component.StateFailed
		s.mu.Unlock()
		return errors.WrapFatal(err, "Server", "Start", "serve websocket")
	}
	return nil
}

// Stop closes the listener and every client connection.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if s.state != component.StateStarted {
		s.mu.Unlock()
		return errors.ErrNotStarted
	}
	s.state = component.StateStopped
	srv := s.server
	clients := make([]*clientConn, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("websocket server shutdown incomplete", "error", err)
	}
	for _, c := range clients {
		s.dropClient(c)
	}
	return nil
}

// State returns the lifecycle state.
func (s *Server) State() component.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Point streams are same-host tooling traffic.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleConnection upgrades one client and pumps its subscribe requests.
func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	client := &clientConn{
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
		handles:     make(map[string]plot.Handle),
	}
	go s.writePump(client)

	s.mu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.metrics.connections.Inc()
	s.metrics.clientsConnected.Set(float64(count))
	s.logger.Info("client connected", "remote", r.RemoteAddr, "clients", count)

	defer s.dropClient(client)

	for {
		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("client read failed", "error", err)
			}
			return
		}
		s.handleRequest(client, req)
	}
}

// handleRequest services one subscribe or unsubscribe frame.
func (s *Server) handleRequest(client *clientConn, req subscribeRequest) {
	switch req.Action {
	case "subscribe":
		s.subscribe(client, req.Variable)
	case "unsubscribe":
		s.unsubscribe(client, req.Variable)
	default:
		s.writeJSON(client, errorFrame{Error: fmt.Sprintf("unknown action %q", req.Action)})
	}
}

// subscribe registers a streaming curve for the variable. Duplicate
// subscriptions are a no-op.
func (s *Server) subscribe(client *clientConn, variable string) {
	if variable == "" {
		s.writeJSON(client, errorFrame{Error: "variable is required"})
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if _, ok := client.handles[variable]; ok {
		return
	}

	curve := &streamCurve{server: s, client: client, variable: variable}
	client.handles[variable] = s.handler.AddCurve(variable, curve)
	s.metrics.subscriptions.Inc()
}

// unsubscribe removes the client's curve for the variable.
func (s *Server) unsubscribe(client *clientConn, variable string) {
	client.mu.Lock()
	handle, ok := client.handles[variable]
	delete(client.handles, variable)
	client.mu.Unlock()

	if ok {
		s.handler.RemoveCurve(handle)
	}
}

// dropClient removes all of a client's curves and closes the connection.
func (s *Server) dropClient(client *clientConn) {
	s.mu.Lock()
	_, present := s.clients[client]
	delete(s.clients, client)
	count := len(s.clients)
	s.mu.Unlock()
	if !present {
		return
	}

	client.mu.Lock()
	handles := make([]plot.Handle, 0, len(client.handles))
	for _, h := range client.handles {
		handles = append(handles, h)
	}
	client.handles = make(map[string]plot.Handle)
	client.mu.Unlock()

	for _, h := range handles {
		s.handler.RemoveCurve(h)
	}
	client.close()
	_ = client.conn.Close()
	s.metrics.clientsConnected.Set(float64(count))
}

// writeJSON queues one frame. A full queue drops the frame rather than
// blocking the caller.
func (s *Server) writeJSON(client *clientConn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode frame", err)
		return
	}

	select {
	case <-client.done:
	case client.send <- data:
	default:
		s.metrics.framesDropped.Inc()
	}
}

// writePump drains a client's send queue onto its connection.
func (s *Server) writePump(client *clientConn) {
	for {
		select {
		case <-client.done:
			return
		case data := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.metrics.writeFailures.Inc()
				return
			}
			s.metrics.framesSent.Inc()
			s.metrics.bytesSent.Add(float64(len(data)))
		}
	}
}

// streamCurve forwards appended points to one client as JSON frames.
type streamCurve struct {
	server   *Server
	client   *clientConn
	variable string
}

// AddPoint implements plot.Curve.
func (c *streamCurve) AddPoint(time, value float64) {
	c.server.writeJSON(c.client, pointFrame{
		Variable: c.variable,
		Time:     time,
		Value:    value,
	})
}
