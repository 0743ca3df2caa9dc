package service

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/model"
	"Crewboard/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

const defaultPageSize = 50

// MessageService 消息服务接口定义
type MessageService interface {
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	SendQuotedReply(ctx context.Context, senderID uint64, quotedMsgID uint64, req *dto.QuotedReplyReq) (*dto.MessageDTO, error)
	AttachMentions(ctx context.Context, actorID uint64, msgID uint64, userIDs []uint64) error
	GetMessage(ctx context.Context, userID uint64, msgID uint64) (*dto.MessageDTO, error)
	GetMessages(ctx context.Context, userID uint64, convID uint64, beforeID uint64, limit int) ([]*dto.MessageDTO, error)
	DeleteMessage(ctx context.Context, actorID uint64, isAdmin bool, msgID uint64) error
	NotifyTyping(ctx context.Context, userID uint64, convID uint64) error
}

type messageServiceImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo repository.MessageRepo
	aggRepo     repository.AggregateRepo
	userRepo    repository.UserRepo
	broadcaster Broadcaster
	notifier    Notifier
	media       TempMediaStore
}

func NewMessageService(
	convRepo repository.ConversationRepo,
	messageRepo repository.MessageRepo,
	aggRepo repository.AggregateRepo,
	userRepo repository.UserRepo,
	broadcaster Broadcaster,
	notifier Notifier,
	media TempMediaStore,
) MessageService {
	return &messageServiceImpl{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		aggRepo:     aggRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		notifier:    notifier,
		media:       media,
	}
}

// SendMessage 发送消息
// 不带会话 ID 时按接收者建立或复用单聊。消息与引用、提及、实体关联
// 在同一事务内落库，提交后才广播与推送
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	// gif 只有 metadata、纯引用回复都允许正文为空
	if strings.TrimSpace(req.Content) == "" && len(req.Attachments) == 0 &&
		req.MessageType != model.MessageTypeGif && req.QuotedMessageID == 0 {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(req.Content) > model.MessageContentMaxLen {
		return nil, ErrMessageTooLong
	}

	convID := req.ConversationID
	var receiverID *uint64
	if convID == 0 {
		if req.ReceiverID == 0 {
			return nil, ErrParamInvalid
		}
		d, err := s.getOrCreateDirect(ctx, senderID, req.ReceiverID)
		if err != nil {
			return nil, err
		}
		convID = d
		receiverID = &req.ReceiverID
	} else {
		conv, err := s.convRepo.GetConversation(ctx, convID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrConversationNotFound
			}
			return nil, err
		}
		if isExpired(conv, time.Now()) {
			return nil, ErrConversationExpired
		}
		isMember, err := s.convRepo.IsMember(ctx, convID, senderID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, ErrNotMember
		}
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = model.MessageTypeText
	}

	msg := &model.Message{
		ConversationID: convID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        req.Content,
		MessageType:    msgType,
		Metadata:       req.Metadata,
	}
	_ = copier.Copy(&msg.Attachments, req.Attachments)

	quote, err := s.buildQuote(ctx, convID, senderID, req.QuotedMessageID)
	if err != nil {
		return nil, err
	}
	mentions, err := s.buildMentions(ctx, convID, senderID, req.MentionedUserIDs)
	if err != nil {
		return nil, err
	}
	refs := make([]*model.MessageEntityRef, 0, len(req.EntityRefs))
	for _, r := range req.EntityRefs {
		refs = append(refs, &model.MessageEntityRef{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Label:      r.Label,
		})
	}

	if err := s.messageRepo.CreateWithLinks(ctx, msg, quote, mentions, refs); err != nil {
		return nil, err
	}

	// 发送者自己的已读进度随之推进，自己的消息不计入自己的未读
	if err := s.convRepo.AdvanceLastRead(ctx, convID, senderID, time.Now()); err != nil {
		log.WarnContext(ctx, "推进发送者已读进度失败", "conv_id", convID, "sender_id", senderID, "err", err)
	}

	if len(msg.Attachments) > 0 {
		keys := make([]string, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			keys = append(keys, a.URL)
		}
		go s.media.Release(context.Background(), keys)
	}

	res, err := s.enrichOne(ctx, msg)
	if err != nil {
		// 落库已成功，聚合失败降级返回裸消息
		log.ErrorContext(ctx, "消息聚合失败", "msg_id", msg.ID, "err", err)
		res = toMessageDTO(msg)
	}

	s.fanOutMessage(convID, senderID, res)
	return res, nil
}

// SendQuotedReply 引用回复快捷入口，目标消息决定会话
func (s *messageServiceImpl) SendQuotedReply(ctx context.Context, senderID uint64, quotedMsgID uint64, req *dto.QuotedReplyReq) (*dto.MessageDTO, error) {
	quoted, err := s.messageRepo.GetMessage(ctx, quotedMsgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	return s.SendMessage(ctx, senderID, &dto.SendMessageReq{
		ConversationID:   quoted.ConversationID,
		Content:          req.Content,
		MessageType:      req.MessageType,
		Attachments:      req.Attachments,
		Metadata:         req.Metadata,
		QuotedMessageID:  quotedMsgID,
		MentionedUserIDs: req.MentionedUserIDs,
	})
}

// AttachMentions 为已有消息补挂提及，重复提及静默去重
func (s *messageServiceImpl) AttachMentions(ctx context.Context, actorID uint64, msgID uint64, userIDs []uint64) error {
	msg, err := s.messageRepo.GetMessage(ctx, msgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	isMember, err := s.convRepo.IsMember(ctx, msg.ConversationID, actorID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}

	mentions, err := s.buildMentions(ctx, msg.ConversationID, actorID, userIDs)
	if err != nil {
		return err
	}
	for _, m := range mentions {
		m.MessageID = msgID
	}
	if err := s.messageRepo.AddMentions(ctx, mentions); err != nil {
		return err
	}

	if len(mentions) > 0 {
		mentioned := make([]uint64, 0, len(mentions))
		for _, m := range mentions {
			mentioned = append(mentioned, m.MentionedUserID)
		}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			event := &dto.RealtimeEvent{
				Type:           EventMentionCreated,
				ConversationID: msg.ConversationID,
				Payload: map[string]any{
					"message_id": msgID,
					"mentioned":  mentioned,
					"by":         actorID,
				},
			}
			_ = s.broadcaster.PublishToConversation(pubCtx, msg.ConversationID, event)
			_ = s.broadcaster.PublishToUsers(pubCtx, mentioned, actorID, event)
		}()
	}
	return nil
}

// GetMessage 获取单条消息及其聚合数据
func (s *messageServiceImpl) GetMessage(ctx context.Context, userID uint64, msgID uint64) (*dto.MessageDTO, error) {
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
	return s.enrichOne(ctx, msg)
}

// GetMessages 分页获取会话消息
// 聚合固定四条批量查询：回应、引用、提及、实体关联，与页大小无关
func (s *messageServiceImpl) GetMessages(ctx context.Context, userID uint64, convID uint64, beforeID uint64, limit int) ([]*dto.MessageDTO, error) {
	isMember, err := s.convRepo.IsMember(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	msgs, err := s.messageRepo.GetMessagePage(ctx, convID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, msgs)
}

// DeleteMessage 删除消息，仅发送者或管理员可操作，关联行级联清除
func (s *messageServiceImpl) DeleteMessage(ctx context.Context, actorID uint64, isAdmin bool, msgID uint64) error {
	msg, err := s.messageRepo.GetMessage(ctx, msgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if msg.SenderID != actorID && !isAdmin {
		return UnauthorizedError
	}

	if err := s.messageRepo.DeleteMessageCascade(ctx, msgID); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.broadcaster.PublishToConversation(ctx, msg.ConversationID, &dto.RealtimeEvent{
			Type:           EventMessageDeleted,
			ConversationID: msg.ConversationID,
			Payload:        map[string]any{"message_id": msgID},
		})
	}()
	return nil
}

// NotifyTyping 输入状态只走会话频道，不落库不推送
func (s *messageServiceImpl) NotifyTyping(ctx context.Context, userID uint64, convID uint64) error {
	isMember, err := s.convRepo.IsMember(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}
	return s.broadcaster.PublishToConversation(ctx, convID, &dto.RealtimeEvent{
		Type:           EventTyping,
		ConversationID: convID,
		Payload:        map[string]any{"user_id": userID},
	})
}

// getOrCreateDirect 按接收者复用或建立单聊
func (s *messageServiceImpl) getOrCreateDirect(ctx context.Context, senderID, receiverID uint64) (uint64, error) {
	if receiverID == senderID {
		return 0, ErrDirectSelf
	}
	ok, err := s.userRepo.ExistAll(ctx, []uint64{receiverID})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUserNotFound
	}

	key := DirectKey(senderID, receiverID)
	conv := &model.Conversation{
		Type:      model.ConversationTypeDirect,
		CreatedBy: senderID,
		DirectKey: &key,
	}
	members := []*model.ConversationMember{
		{UserID: senderID, Role: model.MemberRoleOwner},
		{UserID: receiverID, Role: model.MemberRoleMember},
	}
	res, err := s.convRepo.GetOrCreateDirect(ctx, conv, members)
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// buildQuote 构造引用行，快照在创建时刻截断，后续原文变更不回写
func (s *messageServiceImpl) buildQuote(ctx context.Context, convID, senderID, quotedMsgID uint64) (*model.MessageQuote, error) {
	if quotedMsgID == 0 {
		return nil, nil
	}
	quoted, err := s.messageRepo.GetMessage(ctx, quotedMsgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if quoted.ConversationID != convID {
		return nil, ErrQuoteCrossConv
	}
	return &model.MessageQuote{
		QuotedMessageID: quotedMsgID,
		QuotedBy:        senderID,
		Snippet:         TruncateSnippet(quoted.Content),
	}, nil
}

// buildMentions 构造提及行，去重并剔除发送者自己，被提及者必须是会话成员
func (s *messageServiceImpl) buildMentions(ctx context.Context, convID, senderID uint64, userIDs []uint64) ([]*model.MessageMention, error) {
	ids := dedupIDs(userIDs, senderID)
	if len(ids) == 0 {
		return nil, nil
	}

	memberIDs, err := s.convRepo.GetMemberUserIDs(ctx, convID)
	if err != nil {
		return nil, err
	}
	memberSet := make(map[uint64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}

	mentions := make([]*model.MessageMention, 0, len(ids))
	for _, id := range ids {
		if _, ok := memberSet[id]; !ok {
			return nil, ErrMentionNotMember
		}
		mentions = append(mentions, &model.MessageMention{
			MentionedUserID: id,
			MentionedBy:     senderID,
		})
	}
	return mentions, nil
}

// fanOutMessage 提交后扇出：会话频道、成员用户频道（跳过发送者）、离线推送
// 推送收件人剔除发送者和开了免打扰的成员
func (s *messageServiceImpl) fanOutMessage(convID, senderID uint64, msg *dto.MessageDTO) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		event := &dto.RealtimeEvent{
			Type:           EventMessageCreated,
			ConversationID: convID,
			Payload:        msg,
		}
		if err := s.broadcaster.PublishToConversation(ctx, convID, event); err != nil {
			log.Error("发布会话频道事件失败", "conv_id", convID, "err", err)
		}

		members, err := s.convRepo.GetMembers(ctx, convID)
		if err != nil {
			log.Error("获取会话成员失败", "conv_id", convID, "err", err)
			return
		}
		userIDs := make([]uint64, 0, len(members))
		recipients := make([]uint64, 0, len(members))
		for _, m := range members {
			userIDs = append(userIDs, m.UserID)
			if m.UserID != senderID && !m.IsMuted {
				recipients = append(recipients, m.UserID)
			}
		}
		_ = s.broadcaster.PublishToUsers(ctx, userIDs, senderID, event)

		if len(msg.Mentions) > 0 {
			mentioned := make([]uint64, 0, len(msg.Mentions))
			for _, m := range msg.Mentions {
				mentioned = append(mentioned, m.UserID)
			}
			mentionEvent := &dto.RealtimeEvent{
				Type:           EventMentionCreated,
				ConversationID: convID,
				Payload:        msg,
			}
			_ = s.broadcaster.PublishToConversation(ctx, convID, mentionEvent)
			_ = s.broadcaster.PublishToUsers(ctx, mentioned, senderID, mentionEvent)
		}

		if len(recipients) == 0 {
			return
		}
		push := &dto.PushEvent{
			Event:          EventMessageCreated,
			ConversationID: convID,
			MessageID:      msg.ID,
			SenderID:       senderID,
			RecipientIDs:   recipients,
			Preview:        TruncateSnippet(msg.Content),
			OccurredAt:     msg.CreatedAt,
		}
		if err := s.notifier.Notify(ctx, push); err != nil {
			log.Error("离线推送失败", "conv_id", convID, "msg_id", msg.ID, "err", err)
		}
	}()
}

// enrich 批量挂载聚合数据，四条查询后在内存按消息归并
func (s *messageServiceImpl) enrich(ctx context.Context, msgs []*model.Message) ([]*dto.MessageDTO, error) {
	if len(msgs) == 0 {
		return []*dto.MessageDTO{}, nil
	}

	msgIDs := make([]uint64, 0, len(msgs))
	senderIDs := make([]uint64, 0, len(msgs))
	for _, m := range msgs {
		msgIDs = append(msgIDs, m.ID)
		senderIDs = append(senderIDs, m.SenderID)
	}

	reactions, err := s.aggRepo.GetReactionRows(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	quotes, err := s.aggRepo.GetQuoteRows(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	mentions, err := s.aggRepo.GetMentionRows(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	entityRefs, err := s.aggRepo.GetEntityRefRows(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	senders, err := s.userRepo.GetUsersByIDs(ctx, dedupIDs(senderIDs, 0))
	if err != nil {
		return nil, err
	}

	reactionsByMsg := groupReactions(reactions)
	quoteByMsg := make(map[uint64]*dto.QuoteRef, len(quotes))
	for _, q := range quotes {
		quoteByMsg[q.MessageID] = &dto.QuoteRef{
			QuotedMessageID: q.QuotedMessageID,
			QuotedBy:        q.QuotedBy,
			Snippet:         q.Snippet,
			Content:         q.Content,
			SenderID:        q.SenderID,
			SenderName:      q.SenderName,
		}
	}
	mentionsByMsg := make(map[uint64][]dto.MentionRef)
	for _, m := range mentions {
		mentionsByMsg[m.MessageID] = append(mentionsByMsg[m.MessageID], dto.MentionRef{
			UserID:          m.MentionedUserID,
			Nickname:        m.Nickname,
			MentionedBy:     m.MentionedBy,
			MentionedByName: m.MentionedByName,
			IsRead:          m.IsRead,
			CreatedAt:       m.CreatedAt,
		})
	}
	refsByMsg := make(map[uint64][]dto.EntityRefDTO)
	for _, r := range entityRefs {
		refsByMsg[r.MessageID] = append(refsByMsg[r.MessageID], dto.EntityRefDTO{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Label:      r.Label,
		})
	}

	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		d := toMessageDTO(m)
		if u, ok := senders[m.SenderID]; ok {
			d.SenderName = u.Nickname
		}
		d.Reactions = reactionsByMsg[m.ID]
		d.Quote = quoteByMsg[m.ID]
		d.Mentions = mentionsByMsg[m.ID]
		d.EntityRefs = refsByMsg[m.ID]
		res = append(res, d)
	}
	return res, nil
}

func (s *messageServiceImpl) enrichOne(ctx context.Context, msg *model.Message) (*dto.MessageDTO, error) {
	res, err := s.enrich(ctx, []*model.Message{msg})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// groupReactions 把回应行按消息和表情聚合，用户按首次回应时间排序
func groupReactions(rows []*repository.ReactionRow) map[uint64][]dto.ReactionSummary {
	type key struct {
		msgID uint64
		emoji string
	}
	grouped := make(map[key][]dto.ReactionUser)
	order := make(map[uint64][]string)
	for _, r := range rows {
		k := key{msgID: r.MessageID, emoji: r.Emoji}
		if _, ok := grouped[k]; !ok {
			order[r.MessageID] = append(order[r.MessageID], r.Emoji)
		}
		grouped[k] = append(grouped[k], dto.ReactionUser{
			UserID:    r.UserID,
			Nickname:  r.Nickname,
			ReactedAt: r.CreatedAt,
		})
	}

	res := make(map[uint64][]dto.ReactionSummary, len(order))
	for msgID, emojis := range order {
		summaries := make([]dto.ReactionSummary, 0, len(emojis))
		for _, emoji := range emojis {
			users := grouped[key{msgID: msgID, emoji: emoji}]
			sort.SliceStable(users, func(i, j int) bool {
				return users[i].ReactedAt.Before(users[j].ReactedAt)
			})
			summaries = append(summaries, dto.ReactionSummary{
				Emoji: emoji,
				Count: len(users),
				Users: users,
			})
		}
		res[msgID] = summaries
	}
	return res
}

// TruncateSnippet 按字符截断引用快照，避免把多字节字符截成乱码
func TruncateSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= model.QuoteSnippetMaxLen {
		return content
	}
	return string(runes[:model.QuoteSnippetMaxLen])
}

func toMessageDTO(msg *model.Message) *dto.MessageDTO {
	d := &dto.MessageDTO{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		Metadata:       msg.Metadata,
		ReadStatus:     msg.ReadStatus,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
	_ = copier.Copy(&d.Attachments, msg.Attachments)
	return d
}
