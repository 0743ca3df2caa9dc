package dto

import "time"

// AttachmentDTO 附件元数据，由上传服务产出
type AttachmentDTO struct {
	URL      string `json:"url" binding:"required"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// EntityRefDTO 消息到日历/任务实体的引用
type EntityRefDTO struct {
	EntityType string `json:"entity_type" binding:"required,oneof=event task storage_bin"`
	EntityID   uint64 `json:"entity_id" binding:"required"`
	Label      string `json:"label"`
}

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ConversationID   uint64                 `json:"conversation_id"`
	ReceiverID       uint64                 `json:"receiver_id"`
	Content          string                 `json:"content"`
	MessageType      string                 `json:"message_type"`
	Attachments      []AttachmentDTO        `json:"attachments"`
	Metadata         map[string]interface{} `json:"metadata"`
	QuotedMessageID  uint64                 `json:"quoted_message_id"`
	MentionedUserIDs []uint64               `json:"mentioned_user_ids"`
	EntityRefs       []EntityRefDTO         `json:"entity_refs"`
}

// QuotedReplyReq 引用回复快捷请求，目标消息来自路径参数
type QuotedReplyReq struct {
	Content          string                 `json:"content"`
	MessageType      string                 `json:"message_type"`
	Attachments      []AttachmentDTO        `json:"attachments"`
	Metadata         map[string]interface{} `json:"metadata"`
	MentionedUserIDs []uint64               `json:"mentioned_user_ids"`
}

// AttachMentionsReq 为已有消息补挂提及
type AttachMentionsReq struct {
	MentionedUserIDs []uint64 `json:"mentioned_user_ids" binding:"required,min=1"`
}

// CreateConversationReq 创建会话请求体
type CreateConversationReq struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Type        string     `json:"type" binding:"required,oneof=direct group topic"`
	MemberIDs   []uint64   `json:"member_ids"`
	IsTemporary bool       `json:"is_temporary"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// AddMembersReq 添加成员请求体
type AddMembersReq struct {
	MemberIDs []uint64 `json:"member_ids" binding:"required,min=1"`
}

// MuteReq 免打扰设置请求体
type MuteReq struct {
	Muted *bool `json:"muted" binding:"required"`
}

// ToggleReactionReq 切换表情回应请求体
type ToggleReactionReq struct {
	Emoji string `json:"emoji" binding:"required,max=32"`
}

// TypingReq 输入状态上报
type TypingReq struct {
	ConversationID uint64 `json:"conversation_id" binding:"required"`
}

// ReactionUser 回应过某表情的用户
type ReactionUser struct {
	UserID    uint64    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	ReactedAt time.Time `json:"reacted_at"`
}

// ReactionSummary 单个表情的聚合结果，用户按首次回应时间排序
type ReactionSummary struct {
	Emoji string         `json:"emoji"`
	Count int            `json:"count"`
	Users []ReactionUser `json:"users"`
}

// QuoteRef 引用聚合结果，snippet 为创建时刻快照，content 为原消息当前内容
type QuoteRef struct {
	QuotedMessageID uint64 `json:"quoted_message_id"`
	QuotedBy        uint64 `json:"quoted_by"`
	Snippet         string `json:"snippet"`
	Content         string `json:"content"`
	SenderID        uint64 `json:"sender_id"`
	SenderName      string `json:"sender_name"`
}

// MentionRef 提及聚合结果
type MentionRef struct {
	UserID          uint64    `json:"user_id"`
	Nickname        string    `json:"nickname"`
	MentionedBy     uint64    `json:"mentioned_by"`
	MentionedByName string    `json:"mentioned_by_name"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             uint64                 `json:"id"`
	ConversationID uint64                 `json:"conversation_id"`
	SenderID       uint64                 `json:"sender_id"`
	SenderName     string                 `json:"sender_name,omitempty"`
	ReceiverID     *uint64                `json:"receiver_id,omitempty"`
	Content        string                 `json:"content"`
	MessageType    string                 `json:"message_type"`
	Attachments    []AttachmentDTO        `json:"attachments,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ReadStatus     bool                   `json:"read_status"`
	ReadAt         *time.Time             `json:"read_at,omitempty"`
	Reactions      []ReactionSummary      `json:"reactions,omitempty"`
	Quote          *QuoteRef              `json:"quote,omitempty"`
	Mentions       []MentionRef           `json:"mentions,omitempty"`
	EntityRefs     []EntityRefDTO         `json:"entity_refs,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ToggleReactionRes 切换表情回应响应
type ToggleReactionRes struct {
	Action    string            `json:"action"` // added / removed
	Reactions []ReactionSummary `json:"reactions"`
}

// ConversationDTO 会话详情响应
type ConversationDTO struct {
	ID          uint64                 `json:"id"`
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Type        string                 `json:"type"`
	CreatedBy   uint64                 `json:"created_by"`
	IsTemporary bool                   `json:"is_temporary"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ConversationListItemDTO 会话列表项响应
type ConversationListItemDTO struct {
	ConversationDTO
	UnreadCount int64       `json:"unread_count"`
	IsMuted     bool        `json:"is_muted"`
	LastMessage *MessageDTO `json:"last_message,omitempty"`
}

// MemberDTO 会话成员响应
type MemberDTO struct {
	UserID     uint64     `json:"user_id"`
	Nickname   string     `json:"nickname"`
	AvatarURL  string     `json:"avatar_url"`
	Role       string     `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	IsMuted    bool       `json:"is_muted"`
}

// RealtimeEvent WebSocket 推送事件封装
type RealtimeEvent struct {
	Type           string      `json:"type"`
	ConversationID uint64      `json:"conversation_id,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
}

// PushEvent 投递给外部推送服务的事件
type PushEvent struct {
	Event          string    `json:"event"`
	ConversationID uint64    `json:"conversation_id"`
	MessageID      uint64    `json:"message_id,omitempty"`
	SenderID       uint64    `json:"sender_id"`
	RecipientIDs   []uint64  `json:"recipient_ids"`
	Preview        string    `json:"preview,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
