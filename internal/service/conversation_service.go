package service

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/model"
	"Crewboard/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"gorm.io/gorm"
)

// ConversationService 会话服务接口定义
type ConversationService interface {
	CreateConversation(ctx context.Context, actorID uint64, req *dto.CreateConversationReq) (*dto.ConversationDTO, error)
	GetConversation(ctx context.Context, actorID uint64, convID uint64) (*dto.ConversationDTO, error)
	GetConversationList(ctx context.Context, userID uint64) ([]*dto.ConversationListItemDTO, error)
	GetMembers(ctx context.Context, actorID uint64, convID uint64) ([]*dto.MemberDTO, error)
	AddMembers(ctx context.Context, actorID uint64, convID uint64, memberIDs []uint64) error
	LeaveConversation(ctx context.Context, actorID uint64, convID uint64) error
	RemoveMember(ctx context.Context, actorID uint64, convID uint64, targetID uint64) error
	SetMuted(ctx context.Context, actorID uint64, convID uint64, muted bool) error
	MarkAsRead(ctx context.Context, userID uint64, convID uint64) error
	DeleteConversation(ctx context.Context, actorID uint64, isAdmin bool, convID uint64) error
}

type conversationServiceImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo repository.MessageRepo
	userRepo    repository.UserRepo
	broadcaster Broadcaster
}

func NewConversationService(
	convRepo repository.ConversationRepo,
	messageRepo repository.MessageRepo,
	userRepo repository.UserRepo,
	broadcaster Broadcaster,
) ConversationService {
	return &conversationServiceImpl{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
	}
}

// DirectKey 生成单聊唯一键，与成员传参顺序无关
func DirectKey(a, b uint64) string {
	if a < b {
		return fmt.Sprintf("%d_%d", a, b)
	}
	return fmt.Sprintf("%d_%d", b, a)
}

// CreateConversation 创建会话
// 单聊走插入或获取原语，同一对用户并发创建收敛到同一会话且不报错
func (s *conversationServiceImpl) CreateConversation(ctx context.Context, actorID uint64, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	memberIDs := dedupIDs(req.MemberIDs, actorID)

	ok, err := s.userRepo.ExistAll(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	if req.Type == model.ConversationTypeDirect {
		return s.createDirect(ctx, actorID, memberIDs)
	}

	if len(memberIDs) == 0 {
		return nil, ErrMemberRequired
	}
	if req.IsTemporary && req.ExpiresAt == nil {
		return nil, ErrParamInvalid
	}

	conv := &model.Conversation{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		CreatedBy:   actorID,
		IsTemporary: req.IsTemporary,
		ExpiresAt:   req.ExpiresAt,
	}
	members := buildMembers(actorID, memberIDs)

	if err := s.convRepo.CreateConversation(ctx, conv, members); err != nil {
		return nil, err
	}

	d := toConversationDTO(conv)
	s.broadcastToMembers(conv.ID, actorID, memberIDs, &dto.RealtimeEvent{
		Type:           EventConversationCreated,
		ConversationID: conv.ID,
		Payload:        d,
	})
	return d, nil
}

// createDirect 单聊只允许双方各一人，成员列表恰好为对方一人
func (s *conversationServiceImpl) createDirect(ctx context.Context, actorID uint64, memberIDs []uint64) (*dto.ConversationDTO, error) {
	if len(memberIDs) != 1 {
		return nil, ErrParamInvalid
	}
	peerID := memberIDs[0]
	if peerID == actorID {
		return nil, ErrDirectSelf
	}

	key := DirectKey(actorID, peerID)
	conv := &model.Conversation{
		Type:      model.ConversationTypeDirect,
		CreatedBy: actorID,
		DirectKey: &key,
	}
	members := []*model.ConversationMember{
		{UserID: actorID, Role: model.MemberRoleOwner},
		{UserID: peerID, Role: model.MemberRoleMember},
	}

	res, err := s.convRepo.GetOrCreateDirect(ctx, conv, members)
	if err != nil {
		return nil, err
	}
	return toConversationDTO(res), nil
}

// GetConversation 获取会话详情，要求调用者是成员
func (s *conversationServiceImpl) GetConversation(ctx context.Context, actorID uint64, convID uint64) (*dto.ConversationDTO, error) {
	conv, err := s.requireMemberConversation(ctx, actorID, convID)
	if err != nil {
		return nil, err
	}
	return toConversationDTO(conv), nil
}

// GetConversationList 获取会话列表
// 未读数与最新消息各走一次批量查询，不随会话数量线性发 SQL
func (s *conversationServiceImpl) GetConversationList(ctx context.Context, userID uint64) ([]*dto.ConversationListItemDTO, error) {
	members, err := s.convRepo.GetUserConversationMemList(ctx, userID)
	if err != nil {
		return nil, err
	}

	convIDs := make([]uint64, 0, len(members))
	for _, m := range members {
		convIDs = append(convIDs, m.ConversationID)
	}

	unread, err := s.convRepo.CountUnreadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	lastMsgs, err := s.messageRepo.GetLastMessages(ctx, convIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := make([]*dto.ConversationListItemDTO, 0, len(members))
	for _, m := range members {
		if isExpired(&m.Conversation, now) {
			continue
		}
		item := &dto.ConversationListItemDTO{
			ConversationDTO: *toConversationDTO(&m.Conversation),
			UnreadCount:     unread[m.ConversationID],
			IsMuted:         m.IsMuted,
		}
		if last, ok := lastMsgs[m.ConversationID]; ok {
			item.LastMessage = toMessageDTO(last)
		}
		res = append(res, item)
	}
	return res, nil
}

// GetMembers 获取会话成员列表
func (s *conversationServiceImpl) GetMembers(ctx context.Context, actorID uint64, convID uint64) ([]*dto.MemberDTO, error) {
	if _, err := s.requireMemberConversation(ctx, actorID, convID); err != nil {
		return nil, err
	}

	members, err := s.convRepo.GetMembers(ctx, convID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := s.userRepo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MemberDTO, 0, len(members))
	for _, m := range members {
		d := &dto.MemberDTO{
			UserID:     m.UserID,
			Role:       m.Role,
			JoinedAt:   m.JoinedAt,
			LastReadAt: m.LastReadAt,
			IsMuted:    m.IsMuted,
		}
		if u, ok := users[m.UserID]; ok {
			d.Nickname = u.Nickname
			d.AvatarURL = u.AvatarURL
		}
		res = append(res, d)
	}
	return res, nil
}

// AddMembers 添加成员，仅群主和协管可操作。单聊成员不可变更，重复添加静默跳过
func (s *conversationServiceImpl) AddMembers(ctx context.Context, actorID uint64, convID uint64, memberIDs []uint64) error {
	conv, err := s.requireMemberConversation(ctx, actorID, convID)
	if err != nil {
		return err
	}
	if conv.Type == model.ConversationTypeDirect {
		return ErrDirectImmutable
	}
	actor, err := s.convRepo.GetMember(ctx, convID, actorID)
	if err != nil {
		return err
	}
	if actor.Role == model.MemberRoleMember {
		return UnauthorizedError
	}

	ids := dedupIDs(memberIDs, 0)
	if len(ids) == 0 {
		return ErrParamInvalid
	}
	ok, err := s.userRepo.ExistAll(ctx, ids)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	members := make([]*model.ConversationMember, 0, len(ids))
	for _, id := range ids {
		members = append(members, &model.ConversationMember{
			ConversationID: convID,
			UserID:         id,
			Role:           model.MemberRoleMember,
		})
	}
	if err := s.convRepo.AddMembers(ctx, members); err != nil {
		return err
	}

	all, err := s.convRepo.GetMemberUserIDs(ctx, convID)
	if err == nil {
		s.broadcastToMembers(convID, 0, all, &dto.RealtimeEvent{
			Type:           EventMembersChanged,
			ConversationID: convID,
			Payload:        map[string]any{"added": ids, "by": actorID},
		})
	}
	return nil
}

// LeaveConversation 退出会话，单聊不可退出
func (s *conversationServiceImpl) LeaveConversation(ctx context.Context, actorID uint64, convID uint64) error {
	conv, err := s.requireMemberConversation(ctx, actorID, convID)
	if err != nil {
		return err
	}
	if conv.Type == model.ConversationTypeDirect {
		return ErrDirectImmutable
	}

	if err := s.convRepo.RemoveMember(ctx, convID, actorID); err != nil {
		return err
	}

	all, err := s.convRepo.GetMemberUserIDs(ctx, convID)
	if err == nil {
		s.broadcastToMembers(convID, 0, all, &dto.RealtimeEvent{
			Type:           EventMembersChanged,
			ConversationID: convID,
			Payload:        map[string]any{"removed": []uint64{actorID}},
		})
	}
	return nil
}

// RemoveMember 移除成员，仅群主和协管可操作，群主只能由自己移除（即退出）
func (s *conversationServiceImpl) RemoveMember(ctx context.Context, actorID uint64, convID uint64, targetID uint64) error {
	if targetID == actorID {
		return s.LeaveConversation(ctx, actorID, convID)
	}

	conv, err := s.requireMemberConversation(ctx, actorID, convID)
	if err != nil {
		return err
	}
	if conv.Type == model.ConversationTypeDirect {
		return ErrDirectImmutable
	}

	actor, err := s.convRepo.GetMember(ctx, convID, actorID)
	if err != nil {
		return err
	}
	if actor.Role == model.MemberRoleMember {
		return UnauthorizedError
	}
	target, err := s.convRepo.GetMember(ctx, convID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}
	if target.Role == model.MemberRoleOwner {
		return UnauthorizedError
	}

	if err := s.convRepo.RemoveMember(ctx, convID, targetID); err != nil {
		return err
	}

	// 被移除者单独收一条会话移除事件，其余成员收变更事件
	s.broadcastToMembers(convID, 0, []uint64{targetID}, &dto.RealtimeEvent{
		Type:           EventConversationRemoved,
		ConversationID: convID,
	})
	all, err := s.convRepo.GetMemberUserIDs(ctx, convID)
	if err == nil {
		s.broadcastToMembers(convID, 0, all, &dto.RealtimeEvent{
			Type:           EventMembersChanged,
			ConversationID: convID,
			Payload:        map[string]any{"removed": []uint64{targetID}, "by": actorID},
		})
	}
	return nil
}

// SetMuted 设置会话免打扰
func (s *conversationServiceImpl) SetMuted(ctx context.Context, actorID uint64, convID uint64, muted bool) error {
	if _, err := s.requireMemberConversation(ctx, actorID, convID); err != nil {
		return err
	}
	return s.convRepo.SetMuted(ctx, convID, actorID, muted)
}

// MarkAsRead 标记会话已读：推进已读进度并清掉本人未读提及
// 进度只增不减，乱序到达的旧请求不会把未读数拉回去
func (s *conversationServiceImpl) MarkAsRead(ctx context.Context, userID uint64, convID uint64) error {
	conv, err := s.requireMemberConversation(ctx, userID, convID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.convRepo.AdvanceLastRead(ctx, convID, userID, now); err != nil {
		return err
	}
	if conv.Type == model.ConversationTypeDirect {
		if err := s.messageRepo.MarkDirectRead(ctx, convID, userID, now); err != nil {
			log.ErrorContext(ctx, "更新单聊已读标记失败", "conv_id", convID, "user_id", userID, "err", err)
		}
	}
	if err := s.messageRepo.MarkMentionsRead(ctx, convID, userID, now); err != nil {
		log.ErrorContext(ctx, "清理未读提及失败", "conv_id", convID, "user_id", userID, "err", err)
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.broadcaster.PublishToConversation(pubCtx, convID, &dto.RealtimeEvent{
			Type:           EventReadProgress,
			ConversationID: convID,
			Payload:        map[string]any{"user_id": userID, "read_at": now},
		})
	}()
	return nil
}

// DeleteConversation 删除会话，仅创建者或管理员可操作，数据整体级联清除
func (s *conversationServiceImpl) DeleteConversation(ctx context.Context, actorID uint64, isAdmin bool, convID uint64) error {
	conv, err := s.convRepo.GetConversation(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if conv.CreatedBy != actorID && !isAdmin {
		return UnauthorizedError
	}

	memberIDs, _ := s.convRepo.GetMemberUserIDs(ctx, convID)

	if err := s.convRepo.DeleteConversationCascade(ctx, convID); err != nil {
		return err
	}

	s.broadcastToMembers(convID, 0, memberIDs, &dto.RealtimeEvent{
		Type:           EventConversationRemoved,
		ConversationID: convID,
	})
	return nil
}

// requireMemberConversation 校验会话存在、未过期且调用者是成员
func (s *conversationServiceImpl) requireMemberConversation(ctx context.Context, userID uint64, convID uint64) (*model.Conversation, error) {
	conv, err := s.convRepo.GetConversation(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if isExpired(conv, time.Now()) {
		return nil, ErrConversationExpired
	}

	isMember, err := s.convRepo.IsMember(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}
	return conv, nil
}

// broadcastToMembers 事务提交后异步广播，失败只记日志不影响主流程
func (s *conversationServiceImpl) broadcastToMembers(convID, skipUserID uint64, memberIDs []uint64, event *dto.RealtimeEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.broadcaster.PublishToUsers(ctx, memberIDs, skipUserID, event); err != nil {
			log.Error("广播事件失败", "conv_id", convID, "type", event.Type, "err", err)
		}
	}()
}

func isExpired(conv *model.Conversation, now time.Time) bool {
	return conv.IsTemporary && conv.ExpiresAt != nil && !conv.ExpiresAt.After(now)
}

// dedupIDs 去重并剔除 drop 指定的 ID，传 0 表示不剔除
func dedupIDs(ids []uint64, drop uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	res := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || id == drop {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

func buildMembers(creatorID uint64, memberIDs []uint64) []*model.ConversationMember {
	members := make([]*model.ConversationMember, 0, len(memberIDs)+1)
	members = append(members, &model.ConversationMember{UserID: creatorID, Role: model.MemberRoleOwner})
	for _, id := range memberIDs {
		members = append(members, &model.ConversationMember{UserID: id, Role: model.MemberRoleMember})
	}
	return members
}

func toConversationDTO(conv *model.Conversation) *dto.ConversationDTO {
	return &dto.ConversationDTO{
		ID:          conv.ID,
		Name:        conv.Name,
		Description: conv.Description,
		Type:        conv.Type,
		CreatedBy:   conv.CreatedBy,
		IsTemporary: conv.IsTemporary,
		ExpiresAt:   conv.ExpiresAt,
		Settings:    conv.Settings,
		CreatedAt:   conv.CreatedAt,
	}
}
