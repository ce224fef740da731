package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/internal/app/user"
	"livechat/internal/pkg/randx"
)

const peerReadTimeout = 2 * time.Second

// startHub runs a hub behind a bare websocket endpoint and returns its ws:// URL.
func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(NewRouter(NewRegistry(testAvatarTemplate), RouterConfig{}))
	go hub.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		connectionID, err := randx.ConnectionID()
		if !assert.NoError(t, err) {
			_ = conn.Close()
			return
		}

		client := NewClient(hub, conn, connectionID, nil)
		if !hub.Attach(client) {
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	}))

	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

type testPeer struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialPeer(t *testing.T, url string) *testPeer {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testPeer{t: t, conn: conn}
}

func (p *testPeer) send(name EventName, payload any) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(outboundFrame{Type: name, Payload: payload}))
}

func (p *testPeer) sendRaw(data string) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

// expect reads the next frame, asserts its type and decodes its payload into dst.
func (p *testPeer) expect(name EventName, dst any) {
	p.t.Helper()

	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(peerReadTimeout)))

	var frame Frame
	require.NoError(p.t, p.conn.ReadJSON(&frame))
	require.Equal(p.t, name, frame.Type)

	if dst != nil {
		require.NoError(p.t, json.Unmarshal(frame.Payload, dst))
	}
}

// login logs the peer in and consumes the four frames a joiner receives.
func (p *testPeer) login(name string) user.Participant {
	p.t.Helper()

	p.send(EventLogin, LoginPayload{DisplayName: name})

	var self user.Participant
	p.expect(EventLoginSuccess, &self)
	p.expect(EventUsersUpdate, nil)
	p.expect(EventMessageHistory, nil)
	p.expect(EventNewMessage, nil)

	return self
}

func TestHub_LoginAndBroadcast(t *testing.T) {
	req := require.New(t)
	_, url := startHub(t)

	alice := dialPeer(t, url)
	aliceP := alice.login("alice")
	req.NotEmpty(aliceP.ID)
	req.NotEmpty(aliceP.ConnectionID)
	req.True(aliceP.Online)

	bob := dialPeer(t, url)
	bob.send(EventLogin, LoginPayload{DisplayName: "bob"})

	var bobP user.Participant
	bob.expect(EventLoginSuccess, &bobP)

	var roster []user.Participant
	bob.expect(EventUsersUpdate, &roster)
	req.Len(roster, 2)

	var history []Message
	bob.expect(EventMessageHistory, &history)
	req.Len(history, 1)
	req.Equal("alice has joined the chat", history[0].Body)

	var joined Message
	bob.expect(EventNewMessage, &joined)
	req.Equal("bob has joined the chat", joined.Body)

	alice.expect(EventUsersUpdate, &roster)
	req.Len(roster, 2)
	alice.expect(EventNewMessage, &joined)
	req.Equal("bob has joined the chat", joined.Body)

	// When alice uses the legacy send name
	alice.send(EventSendMessage, SendPayload{Text: "hello bob"})

	for _, peer := range []*testPeer{alice, bob} {
		var msg Message
		peer.expect(EventNewMessage, &msg)
		req.Equal(VariantBroadcast, msg.Variant)
		req.Equal(aliceP.ID, msg.SenderID)
		req.Equal("hello bob", msg.Body)
	}
}

func TestHub_PrivateAndTyping(t *testing.T) {
	req := require.New(t)
	_, url := startHub(t)

	alice := dialPeer(t, url)
	aliceP := alice.login("alice")

	bob := dialPeer(t, url)
	bobP := bob.login("bob")
	alice.expect(EventUsersUpdate, nil)
	alice.expect(EventNewMessage, nil)

	// Typing reaches bob only
	alice.send(EventTyping, true)

	var typing TypingState
	bob.expect(EventUserTyping, &typing)
	req.Equal(TypingState{ParticipantID: aliceP.ID, DisplayName: "alice", IsTyping: true}, typing)

	// The private message reaches both ends, and is the next thing alice sees
	alice.send(EventPrivateSend, PrivateSendPayload{RecipientID: bobP.ID, Text: "secret"})

	for _, peer := range []*testPeer{alice, bob} {
		var msg Message
		peer.expect(EventNewPrivateMessage, &msg)
		req.Equal(VariantPrivate, msg.Variant)
		req.Equal(bobP.ID, msg.RecipientID)
		req.Equal("secret", msg.Body)
	}
}

func TestHub_DisconnectAnnouncesLeave(t *testing.T) {
	req := require.New(t)
	hub, url := startHub(t)

	alice := dialPeer(t, url)
	alice.login("alice")

	bob := dialPeer(t, url)
	bob.login("bob")
	alice.expect(EventUsersUpdate, nil)
	alice.expect(EventNewMessage, nil)

	bob.send(EventTyping, true)
	alice.expect(EventUserTyping, nil)

	require.NoError(t, bob.conn.Close())

	var roster []user.Participant
	alice.expect(EventUsersUpdate, &roster)
	req.Len(roster, 1)
	req.Equal("alice", roster[0].DisplayName)

	var left Message
	alice.expect(EventNewMessage, &left)
	req.Equal(VariantSystem, left.Variant)
	req.Equal("bob has left the chat", left.Body)

	req.Len(hub.Participants(), 1)
	req.Equal("bob has left the chat", hub.History()[len(hub.History())-1].Body)
}

func TestHub_IgnoresInvalidFrames(t *testing.T) {
	_, url := startHub(t)

	peer := dialPeer(t, url)
	peer.sendRaw("not json")
	peer.sendRaw(`{"type":"disconnect"}`)
	peer.sendRaw(`{"type":"login_success","payload":{}}`)
	peer.send(EventSend, SendPayload{Text: "before login"})

	// The connection survives and a later login behaves normally.
	self := peer.login("alice")
	require.Equal(t, "alice", self.DisplayName)
}

func TestHub_Queries(t *testing.T) {
	req := require.New(t)
	hub, url := startHub(t)

	req.Empty(hub.Participants())
	req.Empty(hub.History())

	peer := dialPeer(t, url)
	self := peer.login("alice")

	participants := hub.Participants()
	req.Len(participants, 1)
	req.Equal(self.ID, participants[0].ID)
	req.Len(hub.History(), 1)
}

func TestHub_StopClosesConnections(t *testing.T) {
	req := require.New(t)
	hub, url := startHub(t)

	peer := dialPeer(t, url)
	peer.login("alice")

	hub.Stop()

	req.NoError(peer.conn.SetReadDeadline(time.Now().Add(peerReadTimeout)))
	_, _, err := peer.conn.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	req.False(hub.Submit(Event{ConnectionID: "late", Name: EventSend}))
	req.Empty(hub.Participants())
	req.Empty(hub.History())
}

func TestHub_SlowClientIsDetached(t *testing.T) {
	req := require.New(t)
	hub := NewHub(NewRouter(NewRegistry(testAvatarTemplate), RouterConfig{}))

	slow := &Client{id: "conn-slow", send: make(chan []byte, 1)}
	hub.clients[slow.id] = slow

	hub.Emit(slow.id, EventUsersUpdate, []user.Participant{})
	req.Len(slow.send, 1)

	hub.Emit(slow.id, EventUsersUpdate, []user.Participant{})
	req.NotContains(hub.clients, slow.id)

	<-slow.send
	_, open := <-slow.send
	req.False(open)

	// Later sends to the detached connection are ignored.
	req.NotPanics(func() { hub.Emit(slow.id, EventUsersUpdate, nil) })
}

func TestHub_StaleDisconnectIgnored(t *testing.T) {
	hub := NewHub(NewRouter(NewRegistry(testAvatarTemplate), RouterConfig{}))

	current := &Client{id: "conn-a", send: make(chan []byte, 1)}
	stale := &Client{id: "conn-a", send: make(chan []byte, 1)}
	hub.clients[current.id] = current

	hub.detach(current.id, stale)

	require.Contains(t, hub.clients, current.id)
}

func TestHub_BroadcastSkipsExcluded(t *testing.T) {
	req := require.New(t)
	hub := NewHub(NewRouter(NewRegistry(testAvatarTemplate), RouterConfig{}))

	a := &Client{id: "conn-a", send: make(chan []byte, 1)}
	b := &Client{id: "conn-b", send: make(chan []byte, 1)}
	hub.clients[a.id] = a
	hub.clients[b.id] = b

	hub.Broadcast(EventUserTyping, TypingState{ParticipantID: "p1", IsTyping: true}, a.id)

	req.Empty(a.send)
	req.Len(b.send, 1)

	var frame Frame
	req.NoError(json.Unmarshal(<-b.send, &frame))
	req.Equal(EventUserTyping, frame.Type)
	req.JSONEq(`{"userId":"p1","username":"","isTyping":true}`, string(frame.Payload))
}
