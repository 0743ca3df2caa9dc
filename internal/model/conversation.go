package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const (
	ConversationTypeDirect = "direct"
	ConversationTypeGroup  = "group"
	ConversationTypeTopic  = "topic"
)

// Conversation 会话主表
type Conversation struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        *string     `gorm:"type:varchar(100)" json:"name"`
	Description *string     `gorm:"type:varchar(500)" json:"description"`
	Type        string      `gorm:"type:varchar(10);not null;default:'direct'" json:"type"` // direct / group / topic
	CreatedBy   uint64      `gorm:"not null" json:"createdBy"`
	DirectKey   *string     `gorm:"uniqueIndex:idx_direct_key;type:varchar(64)" json:"-"` // 单聊唯一键 min_max，仅 direct 有值
	IsTemporary bool        `gorm:"not null;default:0" json:"isTemporary"`
	ExpiresAt   *time.Time  `gorm:"index" json:"expiresAt"`
	Settings    SettingsMap `gorm:"type:json" json:"settings"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// SettingsMap 会话设置键值对
type SettingsMap map[string]interface{}

func (m SettingsMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *SettingsMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, m)
}
