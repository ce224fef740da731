package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"livechat/internal/app/user"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
)

const eventQueueBuffer = 1024

// Hub is the single logical owner of all chat state.
//
// One goroutine (Run) consumes a queue of inbound events, connection attachments and
// read-only queries. Each event is fully handled (state mutation plus delivery) before
// the next one is dequeued, so no locks guard the Registry, the history or the typing map.
type Hub struct {
	router *Router

	// clients maps connection IDs to live websocket connections. Only Run touches it.
	clients map[string]*Client

	// events is the ordered queue of inbound events, attachments included.
	events chan Event

	// queries carries read-only closures executed inside the Run goroutine.
	queries chan func()

	// stopChan is closed to make Run return.
	stopChan chan struct{}
	stopOnce sync.Once

	// done is closed once Run has released every connection.
	done chan struct{}

	logger zerolog.Logger
}

// NewHub creates a Hub routing events through router. Call Run to start it.
func NewHub(router *Router) *Hub {
	return &Hub{
		router:   router,
		clients:  make(map[string]*Client),
		events:   make(chan Event, eventQueueBuffer),
		queries:  make(chan func()),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logx.Component("Hub"),
	}
}

// Run processes the event queue until Stop is called.
func (h *Hub) Run() {
	h.logger.Info().Msg("Hub event loop started.")

	defer func() {
		for id, client := range h.clients {
			close(client.send)
			delete(h.clients, id)
		}
		metrics.ConnectionsOpen.Set(0)

		h.logger.Info().Msg("Hub event loop stopped.")
		close(h.done)
	}()

	for {
		select {
		case ev := <-h.events:
			h.handle(ev)

		case query := <-h.queries:
			query()

		case <-h.stopChan:
			return
		}
	}
}

// Stop makes Run return and waits until every connection has been told to close.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info().Msg("Received stop signal. Stopping hub.")
		close(h.stopChan)
	})
	<-h.done
}

// Submit queues ev for processing. It blocks while the queue is full and returns
// false once the hub is stopping.
func (h *Hub) Submit(ev Event) bool {
	select {
	case <-h.stopChan:
		return false
	default:
	}

	select {
	case h.events <- ev:
		return true
	case <-h.stopChan:
		return false
	}
}

// Attach queues a new connection. Events the client submits afterwards are
// guaranteed to be processed after the attachment.
func (h *Hub) Attach(client *Client) bool {
	return h.Submit(Event{
		ConnectionID: client.id,
		Name:         eventConnect,
		client:       client,
	})
}

// Participants returns the current online snapshot.
func (h *Hub) Participants() []user.Participant {
	var snapshot []user.Participant
	if !h.query(func() { snapshot = h.router.Participants() }) {
		return []user.Participant{}
	}
	return snapshot
}

// History returns a copy of the broadcast history.
func (h *Hub) History() []Message {
	var history []Message
	if !h.query(func() { history = h.router.History() }) {
		return []Message{}
	}
	return history
}

// query runs fn on the Run goroutine and waits for it to finish.
func (h *Hub) query(fn func()) bool {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case h.queries <- wrapped:
		<-finished
		return true
	case <-h.stopChan:
		return false
	}
}

func (h *Hub) handle(ev Event) {
	switch ev.Name {
	case eventConnect:
		h.clients[ev.ConnectionID] = ev.client
		metrics.ConnectionsOpen.Set(float64(len(h.clients)))
		h.logger.Debug().
			Str("connection_id", ev.ConnectionID).
			Int("total_connections", len(h.clients)).
			Msg("Connection attached.")
		return

	case EventDisconnect:
		h.detach(ev.ConnectionID, ev.client)
	}

	Deliver(h, h.router.Dispatch(ev))
}

// detach forgets a connection and closes its send queue. A stale client (one that is
// no longer the registered owner of the ID) is ignored.
func (h *Hub) detach(connectionID string, client *Client) {
	current, ok := h.clients[connectionID]
	if !ok || (client != nil && current != client) {
		return
	}

	delete(h.clients, connectionID)
	close(current.send)
	metrics.ConnectionsOpen.Set(float64(len(h.clients)))

	h.logger.Debug().
		Str("connection_id", connectionID).
		Int("total_connections", len(h.clients)).
		Msg("Connection detached.")
}

// Emit implements Transport. It must only be called from the Run goroutine.
func (h *Hub) Emit(connectionID string, event EventName, payload any) {
	client, ok := h.clients[connectionID]
	if !ok {
		return
	}

	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(event)).Msg("Error marshaling frame.")
		return
	}

	h.enqueue(client, frame)
}

// Broadcast implements Transport. It must only be called from the Run goroutine.
func (h *Hub) Broadcast(event EventName, payload any, excludeConnectionID string) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(event)).Msg("Error marshaling frame for broadcast.")
		return
	}

	for id, client := range h.clients {
		if id == excludeConnectionID {
			continue
		}
		h.enqueue(client, frame)
	}
}

// enqueue never blocks. A client whose queue is full is detached; its read pump then
// reports the disconnect through the normal path.
func (h *Hub) enqueue(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		metrics.Dropped(metrics.ReasonSendQueueOverflow)
		h.logger.Warn().
			Str("connection_id", client.id).
			Int("queue_len", len(client.send)).
			Msg("Client send queue full, closing connection.")
		h.detach(client.id, client)
	}
}

func encodeFrame(event EventName, payload any) ([]byte, error) {
	return json.Marshal(outboundFrame{Type: event, Payload: payload})
}
