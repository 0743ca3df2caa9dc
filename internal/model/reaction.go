package model

import "time"

// Reaction 消息表情回应，(message_id, user_id, emoji) 唯一
type Reaction struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID uint64    `gorm:"uniqueIndex:idx_msg_user_emoji;index" json:"messageId"`
	UserID    uint64    `gorm:"uniqueIndex:idx_msg_user_emoji" json:"userId"`
	Emoji     string    `gorm:"uniqueIndex:idx_msg_user_emoji;type:varchar(32);not null" json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Reaction) TableName() string { return "reactions" }
