package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// MessageContentMaxLen 消息正文最大长度（按 rune 计）
const MessageContentMaxLen = 5000

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeGif   = "gif"
)

// Message 消息主表
type Message struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64         `gorm:"not null;index:idx_conv_created" json:"conversationId"`
	SenderID       uint64         `gorm:"not null;index" json:"senderId"`
	ReceiverID     *uint64        `json:"receiverId"` // 冗余字段，仅单聊有值
	Content        string         `gorm:"type:text" json:"content"`
	MessageType    string         `gorm:"type:varchar(20);not null;default:'text'" json:"messageType"`
	Attachments    AttachmentList `gorm:"type:json" json:"attachments"`
	Metadata       MetadataMap    `gorm:"type:json" json:"metadata"`
	ReadStatus     bool           `gorm:"not null;default:0" json:"readStatus"` // 仅单聊语义
	ReadAt         *time.Time     `json:"readAt"`
	CreatedAt      time.Time      `gorm:"index:idx_conv_created" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }

// Attachment 附件元数据，由上传服务产出，本域不解释内容
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// AttachmentList 附件有序列表
type AttachmentList []Attachment

func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *AttachmentList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, l)
}

// MetadataMap 消息附带的不透明键值对
type MetadataMap map[string]interface{}

func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *MetadataMap) Scan(value interface{}) error {
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
