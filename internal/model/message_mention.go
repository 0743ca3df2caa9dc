package model

import "time"

// MessageMention 消息提及，(message_id, mentioned_user_id) 唯一
type MessageMention struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID       uint64     `gorm:"uniqueIndex:idx_msg_mentioned;index" json:"messageId"`
	MentionedUserID uint64     `gorm:"uniqueIndex:idx_msg_mentioned;index" json:"mentionedUserId"`
	MentionedBy     uint64     `gorm:"not null" json:"mentionedBy"`
	IsRead          bool       `gorm:"not null;default:0" json:"isRead"`
	ReadAt          *time.Time `json:"readAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (MessageMention) TableName() string { return "message_mentions" }
