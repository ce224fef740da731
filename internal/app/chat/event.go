package chat

import "encoding/json"

// EventName is the "type" of a websocket frame.
type EventName string

// Inbound events.
const (
	EventLogin       EventName = "login"
	EventSend        EventName = "send"
	EventTyping      EventName = "typing"
	EventPrivateSend EventName = "private_send"

	// EventDisconnect is raised by the transport when a connection is lost. Clients cannot send it.
	EventDisconnect EventName = "disconnect"

	// Names used by the existing browser client for send and private_send.
	EventSendMessage    EventName = "send_message"
	EventPrivateMessage EventName = "private_message"

	// eventConnect attaches a transport connection to the hub. Internal only.
	eventConnect EventName = "connect"
)

// Outbound events.
const (
	EventLoginSuccess      EventName = "login_success"
	EventUsersUpdate       EventName = "users_update"
	EventMessageHistory    EventName = "message_history"
	EventNewMessage        EventName = "new_message"
	EventUserTyping        EventName = "user_typing"
	EventNewPrivateMessage EventName = "new_private_message"
)

// clientEvents are the names a remote peer may send.
var clientEvents = map[EventName]EventName{
	EventLogin:          EventLogin,
	EventSend:           EventSend,
	EventSendMessage:    EventSend,
	EventTyping:         EventTyping,
	EventPrivateSend:    EventPrivateSend,
	EventPrivateMessage: EventPrivateSend,
}

// canonicalClientEvent maps a client-sent name to the router's name.
// ok is false for names a client is not allowed to send.
func canonicalClientEvent(name EventName) (EventName, bool) {
	canonical, ok := clientEvents[name]
	return canonical, ok
}

// Event is one inbound event tagged with the connection it arrived on.
type Event struct {
	ConnectionID string
	Name         EventName
	Payload      json.RawMessage

	// client is set for connect and transport-raised disconnect events.
	client *Client
}

// Frame is the JSON envelope of every websocket message, in both directions.
type Frame struct {
	Type    EventName       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundFrame struct {
	Type    EventName `json:"type"`
	Payload any       `json:"payload"`
}

// LoginPayload is the payload of a login event.
type LoginPayload struct {
	DisplayName string `json:"username" validate:"required"`
	AvatarRef   string `json:"avatar"`
}

// SendPayload is the payload of a send event.
type SendPayload struct {
	Text string `json:"text"`
}

// PrivateSendPayload is the payload of a private_send event.
type PrivateSendPayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Text        string `json:"text"`
}

// TypingState is the ephemeral composing flag of one participant. It doubles as the
// user_typing payload.
type TypingState struct {
	ParticipantID string `json:"userId"`
	DisplayName   string `json:"username"`
	IsTyping      bool   `json:"isTyping"`
}
