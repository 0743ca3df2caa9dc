package handler

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/pkg/response"
	"Crewboard/internal/service"
	log "log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService  service.MessageService
	reactionService service.ReactionService
	convService     service.ConversationService
}

func NewMessageHandler(messageService service.MessageService, reactionService service.ReactionService, convService service.ConversationService) *MessageHandler {
	return &MessageHandler{
		messageService:  messageService,
		reactionService: reactionService,
		convService:     convService,
	}
}

// Send 发送消息接口
func (s *MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	senderID := c.GetUint64("user_id")
	res, err := s.messageService.SendMessage(c, senderID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Reply 引用回复接口，被引用消息来自路径参数
func (s *MessageHandler) Reply(c *gin.Context) {
	msgID, err := parseIDParam(c, "message_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.QuotedReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	senderID := c.GetUint64("user_id")
	res, err := s.messageService.SendQuotedReply(c, senderID, msgID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// AttachMentions 补挂提及接口
func (s *MessageHandler) AttachMentions(c *gin.Context) {
	msgID, err := parseIDParam(c, "message_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.AttachMentionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.messageService.AttachMentions(c, actorID, msgID, req.MentionedUserIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetPage 分页获取会话消息接口
func (s *MessageHandler) GetPage(c *gin.Context) {
	convID, _ := strconv.ParseUint(c.Query("conversation_id"), 10, 64)
	if convID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	beforeID, _ := strconv.ParseUint(c.Query("before_id"), 10, 64)
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	userID := c.GetUint64("user_id")
	res, err := s.messageService.GetMessages(c, userID, convID, beforeID, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 拉取最新一页视为已读
	if beforeID == 0 {
		if err := s.convService.MarkAsRead(c, userID, convID); err != nil {
			log.Warn("拉取消息后标记已读失败", "conv_id", convID, "user_id", userID, "err", err)
		}
	}
	response.Success(c, res)
}

// Get 获取单条消息接口
func (s *MessageHandler) Get(c *gin.Context) {
	msgID, err := parseIDParam(c, "message_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	res, err := s.messageService.GetMessage(c, userID, msgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Delete 删除消息接口，仅发送者或管理员
func (s *MessageHandler) Delete(c *gin.Context) {
	msgID, err := parseIDParam(c, "message_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.messageService.DeleteMessage(c, actorID, isAdmin(c), msgID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleReaction 切换表情回应接口
func (s *MessageHandler) ToggleReaction(c *gin.Context) {
	msgID, err := parseIDParam(c, "message_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.ToggleReactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("user_id")
	res, err := s.reactionService.ToggleReaction(c, userID, msgID, req.Emoji)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Typing 输入状态上报接口
func (s *MessageHandler) Typing(c *gin.Context) {
	var req dto.TypingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.messageService.NotifyTyping(c, userID, req.ConversationID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
