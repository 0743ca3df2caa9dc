package model

import "time"

const (
	EntityTypeEvent      = "event"
	EntityTypeTask       = "task"
	EntityTypeStorageBin = "storage_bin"
)

// MessageEntityRef 消息到日历/任务等外部领域实体的引用，本域仅存储不解释
type MessageEntityRef struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID  uint64    `gorm:"not null;index" json:"messageId"`
	EntityType string    `gorm:"type:varchar(20);not null" json:"entityType"` // event / task / storage_bin
	EntityID   uint64    `gorm:"not null" json:"entityId"`
	Label      string    `gorm:"type:varchar(120)" json:"label"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (MessageEntityRef) TableName() string { return "message_entity_refs" }
