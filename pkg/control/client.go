package control

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "tmu/pkg/errors"
)

const replyTimeout = 5 * time.Second

// Client sends commands to a running control server
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to the control endpoint at url
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "connect to "+url)
	}
	return &Client{conn: conn}, nil
}

// Send delivers a command without waiting for a reply
func (c *Client) Send(t MessageType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(Message{Type: t}); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeTransport, err, "send "+string(t))
	}
	return nil
}

// Request delivers a command and waits for its reply
func (c *Client) Request(ctx context.Context, t MessageType) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var reply Reply

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(Message{Type: t}); err != nil {
		return reply, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "send "+string(t))
	}

	deadline := time.Now().Add(replyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)
	if err := c.conn.ReadJSON(&reply); err != nil {
		return reply, apperrors.Wrap(apperrors.ErrorTypeTransport, err, "read reply to "+string(t))
	}
	return reply, nil
}

// InProgress asks whether a run is active
func (c *Client) InProgress(ctx context.Context) (bool, error) {
	reply, err := c.Request(ctx, CheckInProgress)
	return reply.Payload, err
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
