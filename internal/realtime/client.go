package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

const (
	// pingPeriod must be shorter than the read deadline so pongs arrive in time
	pingPeriod = constants.WebSocketPingInterval * 9 / 10

	// egressBufferSize bounds the per-connection send queue; a client that
	// cannot drain this many events is a slow consumer and gets drops
	egressBufferSize = 256
)

// Client is one live WebSocket connection. One reader and one writer
// goroutine per connection; all pushes go through the buffered egress
// channel so no component ever blocks on a slow socket.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	egress chan Event
	userID uuid.UUID

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		egress: make(chan Event, egressBufferSize),
		userID: userID,
		done:   make(chan struct{}),
	}
}

// UserID returns the authenticated user this connection belongs to
func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Send queues an event for delivery. It never blocks: when the egress
// buffer is full the event is dropped and counted, and the client is
// expected to resync from durable state on reconnect.
func (c *Client) Send(event Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.egress <- event:
		metrics.RealtimeEventsPushedTotal.WithLabelValues(event.Event).Inc()
		return true
	default:
		metrics.RealtimeEventsDroppedTotal.WithLabelValues(event.Event).Inc()
		logger.Warn("Dropping event for slow consumer",
			zap.String("user_id", c.userID.String()),
			zap.String("event", event.Event),
		)
		return false
	}
}

// Close tears down the connection. Safe to call multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Run starts the reader and writer goroutines. It returns immediately;
// cleanup happens through the hub when the reader exits.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// readPump reads frames from the socket and dispatches them. It owns the
// connection's read side and is the only goroutine that triggers disconnect
// cleanup.
func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPingInterval))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPingInterval))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error",
					zap.String("user_id", c.userID.String()),
					zap.Error(err),
				)
				metrics.RealtimeDisconnectionsTotal.WithLabelValues("error").Inc()
			} else {
				metrics.RealtimeDisconnectionsTotal.WithLabelValues("closed").Inc()
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.Send(NewErrorEvent(apperrors.InvalidInputError("malformed event frame")))
			continue
		}

		c.hub.dispatch(c, event)
	}
}

// writePump serializes all writes to the socket, including keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case event := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
