package repository

import (
	"Crewboard/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// ReactionRow 回应聚合行，一条消息一种表情聚合为一行
type ReactionRow struct {
	MessageID uint64
	Emoji     string
	UserID    uint64
	Nickname  string
	CreatedAt time.Time
}

// QuoteRow 引用聚合行，携带被引用消息的正文与发送者
type QuoteRow struct {
	MessageID       uint64
	QuotedMessageID uint64
	QuotedBy        uint64
	Snippet         string
	Content         string
	SenderID        uint64
	SenderName      string
}

// MentionRow 提及聚合行
type MentionRow struct {
	MessageID       uint64
	MentionedUserID uint64
	Nickname        string
	MentionedBy     uint64
	MentionedByName string
	IsRead          bool
	ReadAt          *time.Time
	CreatedAt       time.Time
}

// EntityRefRow 实体关联聚合行
type EntityRefRow struct {
	MessageID  uint64
	EntityType string
	EntityID   uint64
	Label      string
}

// AggregateRepo 消息附属数据的批量读取
// 一批消息固定四条查询，不随消息数量增长
type AggregateRepo interface {
	GetReactionRows(ctx context.Context, msgIDs []uint64) ([]*ReactionRow, error)
	GetQuoteRows(ctx context.Context, msgIDs []uint64) ([]*QuoteRow, error)
	GetMentionRows(ctx context.Context, msgIDs []uint64) ([]*MentionRow, error)
	GetEntityRefRows(ctx context.Context, msgIDs []uint64) ([]*EntityRefRow, error)
}

type aggregateRepoImpl struct {
	db *gorm.DB
}

func NewAggregateRepo(db *gorm.DB) AggregateRepo {
	return &aggregateRepoImpl{db: db}
}

// GetReactionRows 批量获取回应，联表带出用户昵称
func (s *aggregateRepoImpl) GetReactionRows(ctx context.Context, msgIDs []uint64) ([]*ReactionRow, error) {
	if len(msgIDs) == 0 {
		return nil, nil
	}
	var rows []*ReactionRow
	err := s.db.WithContext(ctx).Table("reactions r").
		Select("r.message_id, r.emoji, r.user_id, u.nickname, r.created_at").
		Joins("LEFT JOIN users u ON u.id = r.user_id").
		Where("r.message_id IN ?", msgIDs).
		Order("r.id ASC").
		Find(&rows).Error
	return rows, err
}

// GetQuoteRows 批量获取引用，联表带出被引用消息的正文与发送者昵称
func (s *aggregateRepoImpl) GetQuoteRows(ctx context.Context, msgIDs []uint64) ([]*QuoteRow, error) {
	if len(msgIDs) == 0 {
		return nil, nil
	}
	var rows []*QuoteRow
	err := s.db.WithContext(ctx).Table("message_quotes q").
		Select("q.message_id, q.quoted_message_id, q.quoted_by, q.snippet, m.content, m.sender_id, u.nickname AS sender_name").
		Joins("LEFT JOIN messages m ON m.id = q.quoted_message_id").
		Joins("LEFT JOIN users u ON u.id = m.sender_id").
		Where("q.message_id IN ?", msgIDs).
		Find(&rows).Error
	return rows, err
}

// GetMentionRows 批量获取提及
func (s *aggregateRepoImpl) GetMentionRows(ctx context.Context, msgIDs []uint64) ([]*MentionRow, error) {
	if len(msgIDs) == 0 {
		return nil, nil
	}
	var rows []*MentionRow
	err := s.db.WithContext(ctx).Table("message_mentions mm").
		Select("mm.message_id, mm.mentioned_user_id, u.nickname, mm.mentioned_by, b.nickname AS mentioned_by_name, mm.is_read, mm.read_at, mm.created_at").
		Joins("LEFT JOIN users u ON u.id = mm.mentioned_user_id").
		Joins("LEFT JOIN users b ON b.id = mm.mentioned_by").
		Where("mm.message_id IN ?", msgIDs).
		Order("mm.id ASC").
		Find(&rows).Error
	return rows, err
}

// GetEntityRefRows 批量获取实体关联
func (s *aggregateRepoImpl) GetEntityRefRows(ctx context.Context, msgIDs []uint64) ([]*EntityRefRow, error) {
	if len(msgIDs) == 0 {
		return nil, nil
	}
	var rows []*EntityRefRow
	err := s.db.WithContext(ctx).Model(&model.MessageEntityRef{}).
		Select("message_id, entity_type, entity_id, label").
		Where("message_id IN ?", msgIDs).
		Find(&rows).Error
	return rows, err
}
