package control

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "tmu/pkg/errors"
	"tmu/pkg/logger"
)

const (
	sendBuffer      = 16
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Server accepts control commands over a websocket
type Server struct {
	addr    string
	handler Handler
	logger  logger.Logger

	mu      sync.Mutex
	clients map[*client]bool
}

// NewServer creates a server that passes every decoded command to h
func NewServer(addr string, h Handler, log logger.Logger) *Server {
	return &Server{
		addr:    addr,
		handler: h,
		logger:  log.WithField("component", "control"),
		clients: make(map[*client]bool),
	}
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(DefaultPath, s.handleWS)
	return mux
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeTransport, err, "listen on "+s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.logger.InfoWithFields("Control server listening", map[string]interface{}{"addr": ln.Addr().String()})
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return apperrors.Wrap(apperrors.ErrorTypeTransport, err, "control server")
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Control upgrade failed")
		return
	}

	s.logger.WithField("remote", r.RemoteAddr).Debug("Control client connected")
	c := newClient(conn)
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	defer func() {
		s.remove(c)
		s.logger.WithField("remote", r.RemoteAddr).Debug("Control client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(r.Context(), c, data)
	}
}

// handleMessage decodes and dispatches one frame. Failures are logged and
// never close the connection
func (s *Server) handleMessage(ctx context.Context, c *client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeTransport, err, "decode control message")).Warn("Ignoring malformed control message")
		return
	}

	if !msg.Type.Known() {
		s.logger.WithField("type", string(msg.Type)).Debug("Ignoring unknown control message")
		return
	}

	reply, err := s.handler.Dispatch(ctx, msg)
	if err != nil {
		s.logger.WithError(apperrors.Wrap(apperrors.ErrorTypeTransport, err, "handle control message")).
			WithField("type", string(msg.Type)).Error("Control command failed")
		return
	}
	if reply == nil {
		return
	}

	out, err := json.Marshal(reply)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode control reply")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clients[c] {
		return
	}
	select {
	case c.send <- out:
	default:
		s.logger.Warn("Control client too slow, dropping reply")
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

// checkOrigin accepts requests without an Origin header and requests from
// loopback origins only
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}

	for _, local := range []string{"localhost", "127.0.0.1", "[::1]"} {
		if host == local || strings.HasPrefix(host, local+":") {
			return true
		}
	}
	return host == "::1"
}
