package handler

import (
	"livechat/internal/app/chat"
	"livechat/internal/configs"
)

// AppDeps bundles what the HTTP layer needs from the rest of the application.
type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig
}
