package chat

// Scope selects the recipients of a Delivery.
type Scope int

const (
	// ToAll delivers to every live connection.
	ToAll Scope = iota

	// ToOne delivers to Delivery.ConnectionID only.
	ToOne

	// ToAllExcept delivers to every live connection except Delivery.ConnectionID.
	ToAllExcept
)

func (s Scope) String() string {
	switch s {
	case ToAll:
		return "all"
	case ToOne:
		return "one"
	case ToAllExcept:
		return "all_except"
	default:
		return "unknown"
	}
}

// Delivery is one outbound event and the set of connections that must receive it.
type Delivery struct {
	Scope        Scope
	ConnectionID string
	Event        EventName
	Payload      any
}

func toAll(event EventName, payload any) Delivery {
	return Delivery{Scope: ToAll, Event: event, Payload: payload}
}

func toOne(connectionID string, event EventName, payload any) Delivery {
	return Delivery{Scope: ToOne, ConnectionID: connectionID, Event: event, Payload: payload}
}

func toAllExcept(connectionID string, event EventName, payload any) Delivery {
	return Delivery{Scope: ToAllExcept, ConnectionID: connectionID, Event: event, Payload: payload}
}

// Transport pushes outbound events over live connections. Sends to a closed or
// unknown connection are ignored.
type Transport interface {
	Emit(connectionID string, event EventName, payload any)
	Broadcast(event EventName, payload any, excludeConnectionID string)
}

// Deliver hands deliveries to t in order.
func Deliver(t Transport, deliveries []Delivery) {
	for _, d := range deliveries {
		switch d.Scope {
		case ToOne:
			t.Emit(d.ConnectionID, d.Event, d.Payload)
		case ToAllExcept:
			t.Broadcast(d.Event, d.Payload, d.ConnectionID)
		default:
			t.Broadcast(d.Event, d.Payload, "")
		}
	}
}
