/*
Package errs provides custom error types and application-level error code constants.

Codes identify business and system failures both inside the server and on the HTTP surface.
The websocket protocol has no error channel, so chat codes are only logged and counted.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event payload validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a payload could not be decoded.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrOriginNotAllowed indicates that the websocket handshake came from a foreign origin.
	ErrOriginNotAllowed = 1008
)

// 2xxx: Chat Business Logic Errors
const (
	// ErrMessageContentTooLong indicates that the message body exceeded the configured limit.
	ErrMessageContentTooLong = 2201

	// ErrMessageEmpty indicates that the message body was empty after trimming.
	ErrMessageEmpty = 2202

	// ErrDuplicateConnection indicates a second login on a connection that already has a participant.
	ErrDuplicateConnection = 2301

	// ErrParticipantNotFound indicates a registry lookup miss (unknown connection or participant ID).
	ErrParticipantNotFound = 2302

	// ErrUnsupportedEvent indicates an inbound event name the router does not handle.
	ErrUnsupportedEvent = 2303
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrServiceStopping indicates the chat hub is shutting down.
	ErrServiceStopping = 5001
)
