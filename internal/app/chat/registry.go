package chat

import (
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"livechat/internal/app/user"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/randx"
)

// Registry maps connection IDs to the Participant logged in on them.
// It is the single source of truth for who is online.
//
// Registry is not safe for concurrent use; the Hub owns it and serializes every call.
type Registry struct {
	// byConnection holds at most one Participant per connection.
	byConnection map[string]user.Participant

	// byParticipant is the reverse index used to route private messages.
	byParticipant map[string]string

	// order keeps connection IDs in registration order for stable snapshots.
	order []string

	avatarTemplate string

	logger zerolog.Logger
}

// NewRegistry creates an empty registry. avatarTemplate is used to derive an avatar
// for participants that log in without one.
func NewRegistry(avatarTemplate string) *Registry {
	return &Registry{
		byConnection:   make(map[string]user.Participant),
		byParticipant:  make(map[string]string),
		avatarTemplate: avatarTemplate,
		logger:         logx.Component("Registry"),
	}
}

// Register binds a fresh Participant to connectionID. A connection that already has a
// participant is rejected with ErrDuplicateConnection and left untouched.
func (r *Registry) Register(connectionID, displayName, avatarRef string) (user.Participant, *errs.CustomError) {
	if _, exists := r.byConnection[connectionID]; exists {
		return user.Participant{}, errs.NewError(errs.ErrDuplicateConnection)
	}

	if avatarRef == "" {
		avatarRef = r.defaultAvatar(displayName)
	}

	p := user.Participant{
		ID:           randx.ParticipantID(),
		ConnectionID: connectionID,
		DisplayName:  displayName,
		AvatarRef:    avatarRef,
		Online:       true,
	}

	r.byConnection[connectionID] = p
	r.byParticipant[p.ID] = connectionID
	r.order = append(r.order, connectionID)

	r.logger.Debug().
		Str("connection_id", connectionID).
		Str("participant_id", p.ID).
		Int("total_participants", len(r.order)).
		Msg("Participant registered.")

	return p, nil
}

// defaultAvatar derives the identicon for a participant that supplied no avatar.
func (r *Registry) defaultAvatar(displayName string) string {
	return user.AvatarFor(r.avatarTemplate, displayName)
}

// Unregister removes and returns the Participant bound to connectionID.
func (r *Registry) Unregister(connectionID string) (user.Participant, *errs.CustomError) {
	p, exists := r.byConnection[connectionID]
	if !exists {
		return user.Participant{}, errs.NewError(errs.ErrParticipantNotFound)
	}

	delete(r.byConnection, connectionID)
	delete(r.byParticipant, p.ID)
	r.order = lo.Without(r.order, connectionID)

	r.logger.Debug().
		Str("connection_id", connectionID).
		Str("participant_id", p.ID).
		Int("total_participants", len(r.order)).
		Msg("Participant unregistered.")

	return p, nil
}

// ResolveByConnection returns the Participant logged in on connectionID.
func (r *Registry) ResolveByConnection(connectionID string) (user.Participant, *errs.CustomError) {
	p, exists := r.byConnection[connectionID]
	if !exists {
		return user.Participant{}, errs.NewError(errs.ErrParticipantNotFound)
	}
	return p, nil
}

// ResolveByParticipantID returns the connection a participant is bound to.
func (r *Registry) ResolveByParticipantID(participantID string) (string, *errs.CustomError) {
	connectionID, exists := r.byParticipant[participantID]
	if !exists {
		return "", errs.NewError(errs.ErrParticipantNotFound)
	}
	return connectionID, nil
}

// Snapshot returns the online participants in registration order.
func (r *Registry) Snapshot() []user.Participant {
	return lo.Map(r.order, func(connectionID string, _ int) user.Participant {
		return r.byConnection[connectionID]
	})
}

// Len returns the number of online participants.
func (r *Registry) Len() int {
	return len(r.order)
}
