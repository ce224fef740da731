package handler

import (
	"net/http"

	"livechat/internal/pkg/resp"
)

// HandleListParticipants returns the participants currently online, in join order.
func HandleListParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants := deps.Hub.Participants()

		resp.RespondSuccess(w, map[string]any{
			"participants": participants,
			"count":        len(participants),
		})
	}
}

// HandleListMessages returns the shared broadcast history, oldest first.
// Private messages are never part of it.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, map[string]any{
			"messages": deps.Hub.History(),
		})
	}
}
