/*
Package user defines the identity of a connected chat participant.

A Participant exists only while its connection is logged in; being present in the
registry is what "online" means.
*/
package user

import (
	"fmt"
	"net/url"
)

// Participant is one logged-in identity bound to exactly one live connection.
// JSON tags match the field names expected by the browser client.
type Participant struct {
	// ID is generated at login and never reused.
	ID string `json:"id"`

	// ConnectionID is the transport connection this participant is bound to.
	ConnectionID string `json:"socketId"`

	// DisplayName is user supplied and not unique.
	DisplayName string `json:"username"`

	// AvatarRef is a URI; derived from DisplayName when the client supplies none.
	AvatarRef string `json:"avatar"`

	// Online is always true while the record exists.
	Online bool `json:"online"`
}

// AvatarFor renders the identicon URI for displayName using template, which must
// contain a single %s. The raw display name is the derivation input; it is only
// query-escaped so the result stays a valid URI.
func AvatarFor(template, displayName string) string {
	return fmt.Sprintf(template, url.QueryEscape(displayName))
}
