package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 16384

	// capacity of the per-connection outbound queue.
	sendQueueSize = 256
)

// Client is one websocket connection. It only moves bytes: every inbound frame is
// forwarded to the Hub and every outbound frame comes from the Hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// id is the opaque connection identifier the core knows this connection by.
	id string

	// send is owned by the Hub, which is the only writer and the only closer.
	send chan []byte

	// limiter throttles inbound events.
	limiter *rate.Limiter

	logger zerolog.Logger
}

// NewClient wraps an upgraded connection. limiter may be nil to disable throttling.
func NewClient(hub *Hub, conn *websocket.Conn, id string, limiter *rate.Limiter) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		id:      id,
		send:    make(chan []byte, sendQueueSize),
		limiter: limiter,
		logger:  logx.Logger().With().Str("connection_id", id).Logger(),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads frames until the connection fails, then reports the disconnect.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		if !c.processInboundFrame(frameBytes) {
			return
		}
	}
}

// cleanupOnDisconnect reports the connection loss to the hub and closes the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.hub.Submit(Event{
		ConnectionID: c.id,
		Name:         EventDisconnect,
		client:       c,
	})

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundFrame decodes one frame and forwards it. It returns false when the
// hub is stopping and the read loop should end.
func (c *Client) processInboundFrame(frameBytes []byte) bool {
	var frame Frame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		metrics.Dropped(metrics.ReasonInvalidPayload)
		c.logger.Warn().Err(err).Int("frame_bytes", len(frameBytes)).Msg("Client sent invalid JSON")
		return true
	}

	if _, ok := canonicalClientEvent(frame.Type); !ok {
		metrics.Dropped(metrics.ReasonUnsupportedEvent)
		c.logger.Warn().Str("event", string(frame.Type)).Msg("Client sent unsupported event")
		return true
	}

	if c.limiter != nil && !c.limiter.Allow() {
		metrics.Dropped(metrics.ReasonRateLimited)
		c.logger.Warn().Str("event", string(frame.Type)).Msg("Client exceeded event rate, event dropped")
		return true
	}

	return c.hub.Submit(Event{
		ConnectionID: c.id,
		Name:         frame.Type,
		Payload:      frame.Payload,
	})
}

// WritePump writes queued frames and keepalive pings until the hub closes the queue
// or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame returns false when the WritePump loop should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		// The hub closed the queue.
		if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
