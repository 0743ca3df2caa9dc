package api

import (
	"Crewboard/internal/api/middleware"
	"Crewboard/internal/pkg/consts"
	"Crewboard/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	// WebSocket 长连接，token 走查询参数
	r.GET("/chat", group.WsHandler.Connect)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		convGroup := apiGroup.Group("/conversations")
		{
			convGroup.Use(middleware.AuthMiddleware())
			{
				convGroup.POST("", group.ConversationHandler.Create)
				convGroup.GET("", group.ConversationHandler.List)
				convGroup.GET("/:conversation_id", group.ConversationHandler.Get)
				convGroup.GET("/:conversation_id/members", group.ConversationHandler.GetMembers)
				convGroup.POST("/:conversation_id/members", group.ConversationHandler.AddMembers)
				convGroup.DELETE("/:conversation_id/members/:user_id", group.ConversationHandler.RemoveMember)
				convGroup.POST("/:conversation_id/leave", group.ConversationHandler.Leave)
				convGroup.PUT("/:conversation_id/mute", group.ConversationHandler.SetMute)
				convGroup.POST("/:conversation_id/read", group.ConversationHandler.MarkAsRead)
			}

			// 删除会话需要创建者身份或 admin 角色，角色判断在 service 内完成，
			// 这里只保证已登录
			convGroup.DELETE("/:conversation_id", group.ConversationHandler.Delete)
		}

		msgGroup := apiGroup.Group("/messages")
		{
			msgGroup.Use(middleware.AuthMiddleware())
			{
				msgGroup.POST("", group.MessageHandler.Send)
				msgGroup.GET("", group.MessageHandler.GetPage)
				msgGroup.POST("/typing", group.MessageHandler.Typing)
				msgGroup.GET("/:message_id", group.MessageHandler.Get)
				msgGroup.DELETE("/:message_id", group.MessageHandler.Delete)
				msgGroup.POST("/:message_id/reply", group.MessageHandler.Reply)
				msgGroup.POST("/:message_id/mentions", group.MessageHandler.AttachMentions)
				msgGroup.POST("/:message_id/reactions", group.MessageHandler.ToggleReaction)
			}
		}

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.Use(middleware.AuthMiddleware())
			{
				mediaGroup.POST("/upload", group.MediaHandler.Upload)
			}
		}

		adminGroup := apiGroup.Group("/admin")
		{
			adminGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles(consts.RoleAdmin))
			{
				adminGroup.POST("/conversations/expired/sweep", group.AdminHandler.SweepExpiredConversations)
			}
		}
	}

	return r
}
