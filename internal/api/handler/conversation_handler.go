package handler

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/pkg/consts"
	"Crewboard/internal/pkg/response"
	"Crewboard/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	convService service.ConversationService
}

func NewConversationHandler(convService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// Create 创建会话接口
func (s *ConversationHandler) Create(c *gin.Context) {
	var req dto.CreateConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	actorID := c.GetUint64("user_id")
	res, err := s.convService.CreateConversation(c, actorID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// List 获取会话列表接口
func (s *ConversationHandler) List(c *gin.Context) {
	userID := c.GetUint64("user_id")
	res, err := s.convService.GetConversationList(c, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Get 获取会话详情接口
func (s *ConversationHandler) Get(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	res, err := s.convService.GetConversation(c, userID, convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetMembers 获取会话成员接口
func (s *ConversationHandler) GetMembers(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	res, err := s.convService.GetMembers(c, userID, convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// AddMembers 添加成员接口
func (s *ConversationHandler) AddMembers(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.AddMembersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.convService.AddMembers(c, actorID, convID, req.MemberIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Leave 退出会话接口
func (s *ConversationHandler) Leave(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.convService.LeaveConversation(c, actorID, convID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveMember 移除成员接口
func (s *ConversationHandler) RemoveMember(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	targetID, err := parseIDParam(c, "user_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.convService.RemoveMember(c, actorID, convID, targetID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// SetMute 设置免打扰接口
func (s *ConversationHandler) SetMute(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var req dto.MuteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.convService.SetMuted(c, actorID, convID, *req.Muted); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAsRead 标记会话已读接口
func (s *ConversationHandler) MarkAsRead(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.convService.MarkAsRead(c, userID, convID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete 删除会话接口，仅创建者或管理员
func (s *ConversationHandler) Delete(c *gin.Context) {
	convID, err := parseIDParam(c, "conversation_id")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	if err := s.convService.DeleteConversation(c, actorID, isAdmin(c), convID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// parseIDParam 解析路径中的数字 ID
func parseIDParam(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// isAdmin 判断当前用户是否持有管理员角色
func isAdmin(c *gin.Context) bool {
	for _, role := range c.GetStringSlice("roles") {
		if role == consts.RoleAdmin {
			return true
		}
	}
	return false
}
