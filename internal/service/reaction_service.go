package service

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// ReactionService 表情回应服务接口定义
type ReactionService interface {
	ToggleReaction(ctx context.Context, userID uint64, msgID uint64, emoji string) (*dto.ToggleReactionRes, error)
}

type reactionServiceImpl struct {
	convRepo     repository.ConversationRepo
	messageRepo  repository.MessageRepo
	reactionRepo repository.ReactionRepo
	aggRepo      repository.AggregateRepo
	broadcaster  Broadcaster
}

func NewReactionService(
	convRepo repository.ConversationRepo,
	messageRepo repository.MessageRepo,
	reactionRepo repository.ReactionRepo,
	aggRepo repository.AggregateRepo,
	broadcaster Broadcaster,
) ReactionService {
	return &reactionServiceImpl{
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		reactionRepo: reactionRepo,
		aggRepo:      aggRepo,
		broadcaster:  broadcaster,
	}
}

// ToggleReaction 切换表情回应
// 同一用户同一表情反复调用在加与取消之间交替，不产生重复行。
// 返回动作与该消息切换后的完整聚合
func (s *reactionServiceImpl) ToggleReaction(ctx context.Context, userID uint64, msgID uint64, emoji string) (*dto.ToggleReactionRes, error) {
	if emoji == "" || utf8.RuneCountInString(emoji) > 8 {
		return nil, ErrEmojiInvalid
	}

	msg, err := s.messageRepo.GetMessage(ctx, msgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	isMember, err := s.convRepo.IsMember(ctx, msg.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	action, err := s.reactionRepo.Toggle(ctx, msgID, userID, emoji)
	if err != nil {
		return nil, err
	}

	rows, err := s.aggRepo.GetReactionRows(ctx, []uint64{msgID})
	if err != nil {
		return nil, err
	}
	summaries := groupReactions(rows)[msgID]
	if summaries == nil {
		summaries = []dto.ReactionSummary{}
	}

	res := &dto.ToggleReactionRes{
		Action:    action,
		Reactions: summaries,
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		event := &dto.RealtimeEvent{
			Type:           EventReactionUpdated,
			ConversationID: msg.ConversationID,
			Payload: map[string]any{
				"message_id": msgID,
				"user_id":    userID,
				"emoji":      emoji,
				"action":     action,
				"reactions":  summaries,
			},
		}
		_ = s.broadcaster.PublishToConversation(pubCtx, msg.ConversationID, event)
		memberIDs, err := s.convRepo.GetMemberUserIDs(pubCtx, msg.ConversationID)
		if err != nil {
			log.Error("获取会话成员失败", "conv_id", msg.ConversationID, "err", err)
			return
		}
		_ = s.broadcaster.PublishToUsers(pubCtx, memberIDs, userID, event)
	}()
	return res, nil
}
