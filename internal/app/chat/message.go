/*
Package chat contains the connection-state and message-routing core of the chat server.

This file defines the immutable Message record and its three variants.
*/
package chat

import (
	"fmt"
	"time"

	"livechat/internal/app/user"
	"livechat/internal/pkg/randx"
)

// Variant distinguishes who can see a message. The string values are the
// "type" field understood by the browser client.
type Variant string

const (
	// VariantBroadcast is a participant-authored message visible to everyone.
	VariantBroadcast Variant = "user"

	// VariantPrivate is visible to the sender and one recipient only, and never enters history.
	VariantPrivate Variant = "private"

	// VariantSystem is a join/leave announcement synthesized by the server.
	VariantSystem Variant = "system"
)

const (
	// SystemSenderID is the sender ID of every system message.
	SystemSenderID = "system"

	// SystemSenderName is the display name of every system message.
	SystemSenderName = "System"
)

// Message is never mutated after construction.
type Message struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"sender"`
	SenderAvatar string    `json:"senderAvatar,omitempty"`
	RecipientID  string    `json:"recipientId,omitempty"`
	Body         string    `json:"text"`
	CreatedAt    time.Time `json:"timestamp"`
	Variant      Variant   `json:"type"`
}

// newParticipantMessage builds a broadcast or private message authored by sender.
func newParticipantMessage(variant Variant, sender user.Participant, recipientID, body string, at time.Time) Message {
	return Message{
		ID:           randx.MessageID(),
		SenderID:     sender.ID,
		SenderName:   sender.DisplayName,
		SenderAvatar: sender.AvatarRef,
		RecipientID:  recipientID,
		Body:         body,
		CreatedAt:    at,
		Variant:      variant,
	}
}

func newSystemMessage(body string, at time.Time) Message {
	return Message{
		ID:         randx.MessageID(),
		SenderID:   SystemSenderID,
		SenderName: SystemSenderName,
		Body:       body,
		CreatedAt:  at,
		Variant:    VariantSystem,
	}
}

func joinedMessage(p user.Participant, at time.Time) Message {
	return newSystemMessage(fmt.Sprintf("%s has joined the chat", p.DisplayName), at)
}

func leftMessage(p user.Participant, at time.Time) Message {
	return newSystemMessage(fmt.Sprintf("%s has left the chat", p.DisplayName), at)
}
