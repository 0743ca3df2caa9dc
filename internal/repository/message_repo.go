package repository

import (
	"Crewboard/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type MessageRepo interface {
	CreateWithLinks(ctx context.Context, msg *model.Message, quote *model.MessageQuote, mentions []*model.MessageMention, refs []*model.MessageEntityRef) error
	AddMentions(ctx context.Context, mentions []*model.MessageMention) error
	GetMessage(ctx context.Context, msgID uint64) (*model.Message, error)
	GetMessagePage(ctx context.Context, convID uint64, beforeID uint64, limit int) ([]*model.Message, error)
	GetLastMessages(ctx context.Context, convIDs []uint64) (map[uint64]*model.Message, error)
	MarkMentionsRead(ctx context.Context, convID, userID uint64, ts time.Time) error
	MarkDirectRead(ctx context.Context, convID, readerID uint64, ts time.Time) error
	DeleteMessageCascade(ctx context.Context, msgID uint64) error
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// CreateWithLinks 单事务写入消息及引用、提及、实体关联，任一失败整体回滚
// 提及按行插入，唯一键冲突跳过，保证入参重复时提及行天然去重
func (s *messageRepoImpl) CreateWithLinks(ctx context.Context, msg *model.Message, quote *model.MessageQuote, mentions []*model.MessageMention, refs []*model.MessageEntityRef) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if quote != nil {
			quote.MessageID = msg.ID
			if err := tx.Create(quote).Error; err != nil {
				return err
			}
		}
		for _, m := range mentions {
			m.MessageID = msg.ID
			if err := tx.Create(m).Error; err != nil {
				if IsDuplicateKeyError(err) {
					continue
				}
				return err
			}
		}
		for _, r := range refs {
			r.MessageID = msg.ID
			if err := tx.Create(r).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddMentions 为已有消息补插提及行，唯一键冲突跳过
func (s *messageRepoImpl) AddMentions(ctx context.Context, mentions []*model.MessageMention) error {
	for _, m := range mentions {
		if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
			if IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// GetMessage 根据消息 ID 获取消息
func (s *messageRepoImpl) GetMessage(ctx context.Context, msgID uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).First(&msg, msgID).Error
	return &msg, err
}

// GetMessagePage 游标分页获取会话消息，按 ID 倒序
func (s *messageRepoImpl) GetMessagePage(ctx context.Context, convID uint64, beforeID uint64, limit int) ([]*model.Message, error) {
	q := s.db.WithContext(ctx).Where("conversation_id = ?", convID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []*model.Message
	err := q.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

// GetLastMessages 批量获取各会话的最新一条消息，子查询取每会话最大消息 ID
func (s *messageRepoImpl) GetLastMessages(ctx context.Context, convIDs []uint64) (map[uint64]*model.Message, error) {
	if len(convIDs) == 0 {
		return map[uint64]*model.Message{}, nil
	}

	sub := s.db.Model(&model.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", convIDs).
		Group("conversation_id")

	var msgs []*model.Message
	err := s.db.WithContext(ctx).Where("id IN (?)", sub).Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	res := make(map[uint64]*model.Message, len(msgs))
	for _, m := range msgs {
		res[m.ConversationID] = m
	}
	return res, nil
}

// MarkMentionsRead 将会话内对该用户的未读提及置为已读
func (s *messageRepoImpl) MarkMentionsRead(ctx context.Context, convID, userID uint64, ts time.Time) error {
	msgIDs := s.db.Model(&model.Message{}).Select("id").Where("conversation_id = ?", convID)
	return s.db.WithContext(ctx).Model(&model.MessageMention{}).
		Where("message_id IN (?) AND mentioned_user_id = ? AND is_read = ?", msgIDs, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": ts}).Error
}

// MarkDirectRead 把单聊中对方发来的未读消息置为已读
func (s *messageRepoImpl) MarkDirectRead(ctx context.Context, convID, readerID uint64, ts time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_status = ?", convID, readerID, false).
		Updates(map[string]any{"read_status": true, "read_at": ts}).Error
}

// DeleteMessageCascade 删除消息及其全部关联行，单事务
// 指向该消息的引用行一并清理，避免悬挂引用
func (s *messageRepoImpl) DeleteMessageCascade(ctx context.Context, msgID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", msgID).Delete(&model.MessageEntityRef{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", msgID).Delete(&model.MessageMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ? OR quoted_message_id = ?", msgID, msgID).Delete(&model.MessageQuote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", msgID).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, msgID).Error
	})
}
