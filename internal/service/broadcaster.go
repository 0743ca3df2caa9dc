package service

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/pkg/consts"
	"Crewboard/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"

	"github.com/goccy/go-json"
)

// 实时事件类型
const (
	EventMessageCreated      = "MESSAGE_CREATED"
	EventMessageDeleted      = "MESSAGE_DELETED"
	EventReactionUpdated     = "REACTION_UPDATED"
	EventConversationCreated = "CONVERSATION_CREATED"
	EventConversationRemoved = "CONVERSATION_REMOVED"
	EventMembersChanged      = "MEMBERS_CHANGED"
	EventMentionCreated      = "MENTION_CREATED"
	EventReadProgress        = "READ_PROGRESS"
	EventTyping              = "TYPING"
)

// Broadcaster 实时事件广播接口
// 会话频道面向已订阅该会话的连接，用户频道面向成员的个人连接
type Broadcaster interface {
	PublishToConversation(ctx context.Context, convID uint64, event *dto.RealtimeEvent) error
	PublishToUsers(ctx context.Context, userIDs []uint64, skipUserID uint64, event *dto.RealtimeEvent) error
}

type redisBroadcaster struct{}

func NewRedisBroadcaster() Broadcaster {
	return &redisBroadcaster{}
}

// PublishToConversation 发布事件到会话频道，不做回声过滤，发送方连接也会收到
func (s *redisBroadcaster) PublishToConversation(ctx context.Context, convID uint64, event *dto.RealtimeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := consts.ChatConversationKey + strconv.FormatUint(convID, 10)
	return redis.Publish(ctx, channel, data)
}

// PublishToUsers 发布事件到各成员的用户频道，跳过触发者本人
func (s *redisBroadcaster) PublishToUsers(ctx context.Context, userIDs []uint64, skipUserID uint64, event *dto.RealtimeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for _, uid := range userIDs {
		if uid == skipUserID {
			continue
		}
		channel := consts.ChatUserKey + strconv.FormatUint(uid, 10)
		if err := redis.Publish(ctx, channel, data); err != nil {
			log.Error("发布用户频道事件失败", "user_id", uid, "type", event.Type, "err", err)
		}
	}
	return nil
}
