package repository

import (
	"Crewboard/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) error
	GetOrCreateDirect(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) (*model.Conversation, error)
	GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error)
	GetByDirectKey(ctx context.Context, key string) (*model.Conversation, error)

	GetMember(ctx context.Context, convID, userID uint64) (*model.ConversationMember, error)
	IsMember(ctx context.Context, convID, userID uint64) (bool, error)
	GetMembers(ctx context.Context, convID uint64) ([]*model.ConversationMember, error)
	GetMemberUserIDs(ctx context.Context, convID uint64) ([]uint64, error)
	AddMembers(ctx context.Context, members []*model.ConversationMember) error
	RemoveMember(ctx context.Context, convID, userID uint64) error

	AdvanceLastRead(ctx context.Context, convID, userID uint64, ts time.Time) error
	SetMuted(ctx context.Context, convID, userID uint64, muted bool) error

	GetUserConversationMemList(ctx context.Context, userID uint64) ([]*model.ConversationMember, error)
	CountUnread(ctx context.Context, convID, userID uint64) (int64, error)
	CountUnreadByUser(ctx context.Context, userID uint64) (map[uint64]int64, error)

	GetExpiredTemporaryIDs(ctx context.Context, now time.Time) ([]uint64, error)
	DeleteConversationCascade(ctx context.Context, convID uint64) error
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// CreateConversation 开启事务创建会话及初始成员
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, m := range members {
			m.ConversationID = conv.ID
			m.JoinedAt = time.Now()
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrCreateDirect 单聊会话的插入或获取原语
// 唯一索引 direct_key 是并发创建的唯一闸口：插入冲突视为已存在，回查返回
func (s *conversationRepoImpl) GetOrCreateDirect(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) (*model.Conversation, error) {
	existing, err := s.GetByDirectKey(ctx, *conv.DirectKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.CreateConversation(ctx, conv, members); err != nil {
		if IsDuplicateKeyError(err) {
			return s.GetByDirectKey(ctx, *conv.DirectKey)
		}
		return nil, err
	}
	return conv, nil
}

// GetConversation 根据会话 ID 获取会话
func (s *conversationRepoImpl) GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, convID).Error
	return &conv, err
}

// GetByDirectKey 根据单聊唯一键获取会话
func (s *conversationRepoImpl) GetByDirectKey(ctx context.Context, key string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("direct_key = ?", key).First(&conv).Error
	return &conv, err
}

// GetMember 获取成员行
func (s *conversationRepoImpl) GetMember(ctx context.Context, convID, userID uint64) (*model.ConversationMember, error) {
	var member model.ConversationMember
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		First(&member).Error
	return &member, err
}

// IsMember 检查用户是否是会话成员
func (s *conversationRepoImpl) IsMember(ctx context.Context, convID, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetMembers 获取会话全部成员
func (s *conversationRepoImpl) GetMembers(ctx context.Context, convID uint64) ([]*model.ConversationMember, error) {
	var members []*model.ConversationMember
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// GetMemberUserIDs 获取会话全部成员的用户 ID
func (s *conversationRepoImpl) GetMemberUserIDs(ctx context.Context, convID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ?", convID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// AddMembers 批量添加成员，逐行插入，唯一键冲突视为已是成员
func (s *conversationRepoImpl) AddMembers(ctx context.Context, members []*model.ConversationMember) error {
	for _, m := range members {
		m.JoinedAt = time.Now()
		if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
			if IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// RemoveMember 移除成员
func (s *conversationRepoImpl) RemoveMember(ctx context.Context, convID, userID uint64) error {
	return s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Delete(&model.ConversationMember{}).Error
}

// AdvanceLastRead 推进已读进度，WHERE 条件保证只增不减
func (s *conversationRepoImpl) AdvanceLastRead(ctx context.Context, convID, userID uint64, ts time.Time) error {
	return s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ? AND (last_read_at IS NULL OR last_read_at < ?)", convID, userID, ts).
		Update("last_read_at", ts).Error
}

// SetMuted 设置免打扰
func (s *conversationRepoImpl) SetMuted(ctx context.Context, convID, userID uint64, muted bool) error {
	return s.db.WithContext(ctx).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Update("is_muted", muted).Error
}

// GetUserConversationMemList 联表查询用户参与的全部会话
func (s *conversationRepoImpl) GetUserConversationMemList(ctx context.Context, userID uint64) ([]*model.ConversationMember, error) {
	var members []*model.ConversationMember
	err := s.db.WithContext(ctx).
		Preload("Conversation").
		Where("user_id = ?", userID).
		Find(&members).Error
	return members, err
}

// CountUnread 未读数 = 他人发出且晚于本人已读进度的消息数，进度为空按纪元处理
func (s *conversationRepoImpl) CountUnread(ctx context.Context, convID, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Table("messages msg").
		Joins("JOIN conversation_members m ON m.conversation_id = msg.conversation_id AND m.user_id = ?", userID).
		Where("msg.conversation_id = ? AND msg.sender_id <> ? AND (m.last_read_at IS NULL OR msg.created_at > m.last_read_at)", convID, userID).
		Count(&count).Error
	return count, err
}

// CountUnreadByUser 一次分组查询拿到用户全部会话的未读数
func (s *conversationRepoImpl) CountUnreadByUser(ctx context.Context, userID uint64) (map[uint64]int64, error) {
	type row struct {
		ConversationID uint64
		UnreadCount    int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Table("messages msg").
		Select("msg.conversation_id AS conversation_id, COUNT(*) AS unread_count").
		Joins("JOIN conversation_members m ON m.conversation_id = msg.conversation_id").
		Where("m.user_id = ? AND msg.sender_id <> m.user_id AND (m.last_read_at IS NULL OR msg.created_at > m.last_read_at)", userID).
		Group("msg.conversation_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make(map[uint64]int64, len(rows))
	for _, r := range rows {
		res[r.ConversationID] = r.UnreadCount
	}
	return res, nil
}

// GetExpiredTemporaryIDs 获取已过期的临时会话
func (s *conversationRepoImpl) GetExpiredTemporaryIDs(ctx context.Context, now time.Time) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("is_temporary = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteConversationCascade 级联删除会话及其全部消息与关联行，单事务
func (s *conversationRepoImpl) DeleteConversationCascade(ctx context.Context, convID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgIDs := tx.Model(&model.Message{}).Select("id").Where("conversation_id = ?", convID)

		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.MessageEntityRef{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.MessageMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.MessageQuote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", convID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", convID).Delete(&model.ConversationMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, convID).Error
	})
}
