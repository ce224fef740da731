/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

HandleWebSocket upgrades the request, attaches the connection to the hub and runs the
client pumps. Identity is established later by the login event. Join rate limiting is
applied by the route.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"livechat/internal/app/chat"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/randx"
	"livechat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteIP := logx.AnonymizeIP(r.RemoteAddr)

		connectionID, err := randx.ConnectionID()
		if err != nil {
			logx.Error(err, "Failed to generate connection ID", "remote_ip", remoteIP)
			resp.RespondError(w, errs.NewError(errs.ErrUnknown))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "remote_ip", remoteIP, "error", err.Error())
			return
		}

		eventLimiter := rate.NewLimiter(rate.Limit(deps.Config.EventRate), deps.Config.EventBurst)
		client := chat.NewClient(deps.Hub, conn, connectionID, eventLimiter)

		if !deps.Hub.Attach(client) {
			logx.Warn("WebSocket connection rejected: Hub is stopping.", "connection_id", connectionID)
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, errs.NewError(errs.ErrServiceStopping).Message)
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}

		logx.Info("WebSocket connection established", "connection_id", connectionID, "remote_ip", remoteIP)

		go client.WritePump()

		client.ReadPump()
	}
}
