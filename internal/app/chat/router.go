package chat

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"livechat/internal/app/user"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
)

const (
	// DefaultMaxContentBytes bounds a message body when RouterConfig leaves it unset.
	DefaultMaxContentBytes = 5000

	// DefaultMaxDisplayName bounds a display name (in runes) when RouterConfig leaves it unset.
	DefaultMaxDisplayName = 64
)

// RouterConfig tunes payload limits. Zero values fall back to the defaults.
type RouterConfig struct {
	MaxContentBytes int
	MaxDisplayName  int

	// Now stamps new messages; time.Now when nil.
	Now func() time.Time
}

// Router turns one inbound Event into state mutations plus the deliveries to perform.
//
// The Router owns the shared broadcast history and the typing states. Like the
// Registry it is not safe for concurrent use: the Hub calls it from a single goroutine.
type Router struct {
	registry *Registry

	// history is append-only and unbounded.
	history []Message

	// typing holds the participants whose last report was isTyping=true.
	typing map[string]TypingState

	cfg      RouterConfig
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewRouter creates a Router working on registry.
func NewRouter(registry *Registry, cfg RouterConfig) *Router {
	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = DefaultMaxContentBytes
	}
	if cfg.MaxDisplayName <= 0 {
		cfg.MaxDisplayName = DefaultMaxDisplayName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Router{
		registry: registry,
		typing:   make(map[string]TypingState),
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logx.Component("Router"),
	}
}

// Dispatch handles ev and returns the deliveries it produced, in the order they must
// be sent. Invalid or late events produce no deliveries. A panic while handling one
// event is recovered and logged so it cannot affect other connections.
func (r *Router) Dispatch(ev Event) (deliveries []Delivery) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("connection_id", ev.ConnectionID).
				Str("event", string(ev.Name)).
				Interface("panic", rec).
				Msg("Recovered from panic while handling event.")
			metrics.Dropped(metrics.ReasonPanic)
			deliveries = nil
		}
	}()

	name := ev.Name
	if canonical, ok := canonicalClientEvent(name); ok {
		name = canonical
	}

	metrics.EventsTotal.WithLabelValues(string(name)).Inc()

	switch name {
	case EventLogin:
		return r.handleLogin(ev.ConnectionID, ev.Payload)
	case EventSend:
		return r.handleSend(ev.ConnectionID, ev.Payload)
	case EventTyping:
		return r.handleTyping(ev.ConnectionID, ev.Payload)
	case EventPrivateSend:
		return r.handlePrivateSend(ev.ConnectionID, ev.Payload)
	case EventDisconnect:
		return r.handleDisconnect(ev.ConnectionID)
	default:
		r.drop(ev.ConnectionID, metrics.ReasonUnsupportedEvent, errs.NewError(errs.ErrUnsupportedEvent, string(ev.Name)))
		return nil
	}
}

func (r *Router) handleLogin(connectionID string, payload json.RawMessage) []Delivery {
	var in LoginPayload
	if err := r.decode(payload, &in); err != nil {
		r.drop(connectionID, metrics.ReasonInvalidPayload, err)
		return nil
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > r.cfg.MaxDisplayName {
		r.drop(connectionID, metrics.ReasonInvalidPayload, errs.NewError(errs.ErrInvalidParams))
		return nil
	}

	// The identicon is seeded with the name exactly as the client sent it.
	avatarRef := strings.TrimSpace(in.AvatarRef)
	if avatarRef == "" {
		avatarRef = r.registry.defaultAvatar(in.DisplayName)
	}

	p, err := r.registry.Register(connectionID, displayName, avatarRef)
	if err != nil {
		r.drop(connectionID, metrics.ReasonDuplicateLogin, err)
		return nil
	}
	metrics.ParticipantsOnline.Set(float64(r.registry.Len()))

	// The joiner's history replay stops before its own join announcement,
	// which reaches it through new_message like everyone else.
	history := r.History()

	joined := joinedMessage(p, r.cfg.Now())
	r.appendHistory(joined)

	r.logger.Info().
		Str("connection_id", connectionID).
		Str("participant_id", p.ID).
		Int("total_participants", r.registry.Len()).
		Msg("Participant joined.")

	return []Delivery{
		toOne(connectionID, EventLoginSuccess, p),
		toAll(EventUsersUpdate, r.registry.Snapshot()),
		toOne(connectionID, EventMessageHistory, history),
		toAll(EventNewMessage, joined),
	}
}

func (r *Router) handleSend(connectionID string, payload json.RawMessage) []Delivery {
	sender, err := r.registry.ResolveByConnection(connectionID)
	if err != nil {
		r.drop(connectionID, metrics.ReasonUnknownSender, err)
		return nil
	}

	var in SendPayload
	if err := r.decode(payload, &in); err != nil {
		r.drop(connectionID, metrics.ReasonInvalidPayload, err)
		return nil
	}

	if reason, err := r.checkBody(in.Text); err != nil {
		r.drop(connectionID, reason, err)
		return nil
	}

	msg := newParticipantMessage(VariantBroadcast, sender, "", in.Text, r.cfg.Now())
	r.appendHistory(msg)

	return []Delivery{toAll(EventNewMessage, msg)}
}

func (r *Router) handleTyping(connectionID string, payload json.RawMessage) []Delivery {
	sender, err := r.registry.ResolveByConnection(connectionID)
	if err != nil {
		r.drop(connectionID, metrics.ReasonUnknownSender, err)
		return nil
	}

	var isTyping bool
	if err := json.Unmarshal(payload, &isTyping); err != nil {
		r.drop(connectionID, metrics.ReasonInvalidPayload, err)
		return nil
	}

	state := TypingState{
		ParticipantID: sender.ID,
		DisplayName:   sender.DisplayName,
		IsTyping:      isTyping,
	}

	if isTyping {
		r.typing[sender.ID] = state
	} else {
		delete(r.typing, sender.ID)
	}

	return []Delivery{toAllExcept(connectionID, EventUserTyping, state)}
}

func (r *Router) handlePrivateSend(connectionID string, payload json.RawMessage) []Delivery {
	sender, err := r.registry.ResolveByConnection(connectionID)
	if err != nil {
		r.drop(connectionID, metrics.ReasonUnknownSender, err)
		return nil
	}

	var in PrivateSendPayload
	if err := r.decode(payload, &in); err != nil {
		r.drop(connectionID, metrics.ReasonInvalidPayload, err)
		return nil
	}

	recipientConnectionID, err := r.registry.ResolveByParticipantID(in.RecipientID)
	if err != nil {
		r.drop(connectionID, metrics.ReasonUnknownRecipient, err)
		return nil
	}

	if reason, err := r.checkBody(in.Text); err != nil {
		r.drop(connectionID, reason, err)
		return nil
	}

	msg := newParticipantMessage(VariantPrivate, sender, in.RecipientID, in.Text, r.cfg.Now())
	metrics.MessagesTotal.WithLabelValues(string(VariantPrivate)).Inc()

	// A note to self is delivered once.
	targets := lo.Uniq([]string{connectionID, recipientConnectionID})

	return lo.Map(targets, func(target string, _ int) Delivery {
		return toOne(target, EventNewPrivateMessage, msg)
	})
}

func (r *Router) handleDisconnect(connectionID string) []Delivery {
	p, err := r.registry.Unregister(connectionID)
	if err != nil {
		// Anonymous connections and repeated close notifications end up here.
		r.logger.Debug().Str("connection_id", connectionID).Msg("Disconnect for connection without participant ignored.")
		return nil
	}
	metrics.ParticipantsOnline.Set(float64(r.registry.Len()))

	delete(r.typing, p.ID)

	left := leftMessage(p, r.cfg.Now())
	r.appendHistory(left)

	r.logger.Info().
		Str("connection_id", connectionID).
		Str("participant_id", p.ID).
		Int("total_participants", r.registry.Len()).
		Msg("Participant left.")

	return []Delivery{
		toAll(EventUsersUpdate, r.registry.Snapshot()),
		toAll(EventNewMessage, left),
	}
}

// History returns a copy of the broadcast history in insertion order.
func (r *Router) History() []Message {
	history := make([]Message, len(r.history))
	copy(history, r.history)
	return history
}

// Participants returns the registry snapshot.
func (r *Router) Participants() []user.Participant {
	return r.registry.Snapshot()
}

// Typing returns the participants currently reported as typing, ordered by participant ID.
func (r *Router) Typing() []TypingState {
	states := lo.Values(r.typing)
	slices.SortFunc(states, func(a, b TypingState) int {
		return strings.Compare(a.ParticipantID, b.ParticipantID)
	})
	return states
}

func (r *Router) appendHistory(msg Message) {
	r.history = append(r.history, msg)
	metrics.MessagesTotal.WithLabelValues(string(msg.Variant)).Inc()
}

// checkBody rejects bodies that are blank after trimming or longer than the limit.
func (r *Router) checkBody(text string) (string, *errs.CustomError) {
	if strings.TrimSpace(text) == "" {
		return metrics.ReasonEmptyBody, errs.NewError(errs.ErrMessageEmpty)
	}
	if len(text) > r.cfg.MaxContentBytes {
		return metrics.ReasonBodyTooLong, errs.NewError(errs.ErrMessageContentTooLong, r.cfg.MaxContentBytes)
	}
	return "", nil
}

// decode unmarshals a JSON object payload into dst and runs struct validation.
func (r *Router) decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", errs.NewError(errs.ErrInvalidJSONFormat), err)
	}
	if err := r.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errs.NewError(errs.ErrInvalidParams), err)
	}
	return nil
}

// drop records an event that is discarded without any delivery. The peer is never told.
func (r *Router) drop(connectionID, reason string, err error) {
	metrics.Dropped(reason)
	r.logger.Warn().
		Err(err).
		Str("connection_id", connectionID).
		Str("reason", reason).
		Msg("Event dropped.")
}
