package errs

import "net/http"

// errorMap stores the template CustomError for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrOriginNotAllowed:  {Code: ErrOriginNotAllowed, Message: "Origin not allowed.", Status: http.StatusForbidden},

	// 2xxx: Chat Business Logic Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d bytes)."},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message is empty."},
	ErrDuplicateConnection:   {Code: ErrDuplicateConnection, Message: "This connection is already signed in."},
	ErrParticipantNotFound:   {Code: ErrParticipantNotFound, Message: "Participant not found.", Status: http.StatusNotFound},
	ErrUnsupportedEvent:      {Code: ErrUnsupportedEvent, Message: "Unsupported event %q."},

	// 5xxx: Internal System Errors
	ErrUnknown:         {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrServiceStopping: {Code: ErrServiceStopping, Message: "Chat service is shutting down.", Status: http.StatusServiceUnavailable},
}
