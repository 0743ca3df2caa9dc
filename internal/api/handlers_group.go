package api

import "Crewboard/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ConversationHandler *handler.ConversationHandler
	MessageHandler      *handler.MessageHandler
	MediaHandler        *handler.MediaHandler
	AdminHandler        *handler.AdminHandler
	WsHandler           *handler.WsHandler
}
