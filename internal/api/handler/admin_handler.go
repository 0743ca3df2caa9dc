package handler

import (
	"Crewboard/internal/job"
	"Crewboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler 平台管理接口
type AdminHandler struct {
	expiryJob *job.ConversationExpiryJob
}

func NewAdminHandler(expiryJob *job.ConversationExpiryJob) *AdminHandler {
	return &AdminHandler{expiryJob: expiryJob}
}

// SweepExpiredConversations 立即执行一轮过期临时会话清理，不等定时任务
func (s *AdminHandler) SweepExpiredConversations(c *gin.Context) {
	s.expiryJob.Run()
	response.Success(c, nil)
}
