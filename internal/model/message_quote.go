package model

import "time"

// QuoteSnippetMaxLen 引用摘要的最大长度（按 rune 计）
const QuoteSnippetMaxLen = 280

// MessageQuote 消息引用，snippet 为创建时刻的快照，不随原消息变化
type MessageQuote struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID       uint64    `gorm:"uniqueIndex;not null" json:"messageId"`
	QuotedMessageID uint64    `gorm:"not null;index" json:"quotedMessageId"`
	QuotedBy        uint64    `gorm:"not null" json:"quotedBy"`
	Snippet         string    `gorm:"type:varchar(280);not null" json:"snippet"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (MessageQuote) TableName() string { return "message_quotes" }
