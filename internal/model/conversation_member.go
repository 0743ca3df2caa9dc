package model

import "time"

const (
	MemberRoleOwner     = "owner"
	MemberRoleModerator = "moderator"
	MemberRoleMember    = "member"
)

// ConversationMember 会话成员表
type ConversationMember struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64     `gorm:"uniqueIndex:idx_conv_user" json:"conversationId"`
	UserID         uint64     `gorm:"uniqueIndex:idx_conv_user;index" json:"userId"`
	Role           string     `gorm:"type:varchar(10);not null;default:'member'" json:"role"` // owner / moderator / member
	LastReadAt     *time.Time `json:"lastReadAt"` // 已读进度，只增不减
	IsMuted        bool       `gorm:"not null;default:0" json:"isMuted"`
	JoinedAt       time.Time  `json:"joinedAt"`

	Conversation Conversation `gorm:"foreignKey:ConversationID;references:ID" json:"conversation"`

	// 虚拟字段：仅读不写，存储 SQL 计算结果
	UnreadCount int64 `gorm:"->" json:"unreadCount"`
}

func (ConversationMember) TableName() string { return "conversation_members" }
