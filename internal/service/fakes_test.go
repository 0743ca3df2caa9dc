package service

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/model"
	"Crewboard/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// memStore 共享的内存数据集，按存储层的唯一约束语义实现
type memStore struct {
	mu         sync.Mutex
	nextID     uint64
	clock      time.Time
	convs      map[uint64]*model.Conversation
	directKeys map[string]uint64
	members    map[uint64][]*model.ConversationMember
	messages   map[uint64]*model.Message
	quotes     []*model.MessageQuote
	mentions   []*model.MessageMention
	refs       []*model.MessageEntityRef
	reactions  []*model.Reaction
	users      map[uint64]*model.User
}

func newMemStore() *memStore {
	return &memStore{
		convs:      map[uint64]*model.Conversation{},
		directKeys: map[string]uint64{},
		members:    map[uint64][]*model.ConversationMember{},
		messages:   map[uint64]*model.Message{},
		users:      map[uint64]*model.User{},
	}
}

func (st *memStore) id() uint64 {
	st.nextID++
	return st.nextID
}

// tick 返回严格递增的当前时间，和服务层的 time.Now 同一时间线
func (st *memStore) tick() time.Time {
	now := time.Now()
	if !now.After(st.clock) {
		now = st.clock.Add(time.Microsecond)
	}
	st.clock = now
	return now
}

func (st *memStore) addUser(id uint64, nickname string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.users[id] = &model.User{ID: id, Nickname: nickname}
}

func (st *memStore) setRole(convID, userID uint64, role string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, m := range st.members[convID] {
		if m.UserID == userID {
			m.Role = role
		}
	}
}

func dupErr() error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
}

type fakeConvRepo struct {
	st *memStore
}

func (f *fakeConvRepo) CreateConversation(_ context.Context, conv *model.Conversation, members []*model.ConversationMember) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if conv.DirectKey != nil {
		if _, ok := f.st.directKeys[*conv.DirectKey]; ok {
			return dupErr()
		}
	}
	conv.ID = f.st.id()
	conv.CreatedAt = f.st.tick()
	f.st.convs[conv.ID] = conv
	if conv.DirectKey != nil {
		f.st.directKeys[*conv.DirectKey] = conv.ID
	}
	for _, m := range members {
		m.ID = f.st.id()
		m.ConversationID = conv.ID
		m.JoinedAt = f.st.tick()
		f.st.members[conv.ID] = append(f.st.members[conv.ID], m)
	}
	return nil
}

func (f *fakeConvRepo) GetOrCreateDirect(ctx context.Context, conv *model.Conversation, members []*model.ConversationMember) (*model.Conversation, error) {
	existing, err := f.GetByDirectKey(ctx, *conv.DirectKey)
	if err == nil {
		return existing, nil
	}
	if err := f.CreateConversation(ctx, conv, members); err != nil {
		if repository.IsDuplicateKeyError(err) {
			return f.GetByDirectKey(ctx, *conv.DirectKey)
		}
		return nil, err
	}
	return conv, nil
}

func (f *fakeConvRepo) GetConversation(_ context.Context, convID uint64) (*model.Conversation, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	conv, ok := f.st.convs[convID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (f *fakeConvRepo) GetByDirectKey(_ context.Context, key string) (*model.Conversation, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	id, ok := f.st.directKeys[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.st.convs[id], nil
}

func (f *fakeConvRepo) GetMember(_ context.Context, convID, userID uint64) (*model.ConversationMember, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range f.st.members[convID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvRepo) IsMember(_ context.Context, convID, userID uint64) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range f.st.members[convID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConvRepo) GetMembers(_ context.Context, convID uint64) ([]*model.ConversationMember, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return append([]*model.ConversationMember{}, f.st.members[convID]...), nil
}

func (f *fakeConvRepo) GetMemberUserIDs(_ context.Context, convID uint64) ([]uint64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var ids []uint64
	for _, m := range f.st.members[convID] {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (f *fakeConvRepo) AddMembers(_ context.Context, members []*model.ConversationMember) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range members {
		exists := false
		for _, cur := range f.st.members[m.ConversationID] {
			if cur.UserID == m.UserID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		m.ID = f.st.id()
		m.JoinedAt = f.st.tick()
		f.st.members[m.ConversationID] = append(f.st.members[m.ConversationID], m)
	}
	return nil
}

func (f *fakeConvRepo) RemoveMember(_ context.Context, convID, userID uint64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	cur := f.st.members[convID]
	next := cur[:0]
	for _, m := range cur {
		if m.UserID != userID {
			next = append(next, m)
		}
	}
	f.st.members[convID] = next
	return nil
}

func (f *fakeConvRepo) AdvanceLastRead(_ context.Context, convID, userID uint64, ts time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range f.st.members[convID] {
		if m.UserID == userID {
			if m.LastReadAt == nil || m.LastReadAt.Before(ts) {
				t := ts
				m.LastReadAt = &t
			}
		}
	}
	return nil
}

func (f *fakeConvRepo) SetMuted(_ context.Context, convID, userID uint64, muted bool) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range f.st.members[convID] {
		if m.UserID == userID {
			m.IsMuted = muted
		}
	}
	return nil
}

func (f *fakeConvRepo) GetUserConversationMemList(_ context.Context, userID uint64) ([]*model.ConversationMember, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var res []*model.ConversationMember
	for convID, members := range f.st.members {
		for _, m := range members {
			if m.UserID == userID {
				cp := *m
				cp.Conversation = *f.st.convs[convID]
				res = append(res, &cp)
			}
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ConversationID < res[j].ConversationID })
	return res, nil
}

func (f *fakeConvRepo) countUnreadLocked(convID, userID uint64) int64 {
	var lastRead *time.Time
	for _, m := range f.st.members[convID] {
		if m.UserID == userID {
			lastRead = m.LastReadAt
		}
	}
	var count int64
	for _, msg := range f.st.messages {
		if msg.ConversationID != convID || msg.SenderID == userID {
			continue
		}
		if lastRead == nil || msg.CreatedAt.After(*lastRead) {
			count++
		}
	}
	return count
}

func (f *fakeConvRepo) CountUnread(_ context.Context, convID, userID uint64) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.countUnreadLocked(convID, userID), nil
}

func (f *fakeConvRepo) CountUnreadByUser(_ context.Context, userID uint64) (map[uint64]int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	res := map[uint64]int64{}
	for convID, members := range f.st.members {
		for _, m := range members {
			if m.UserID == userID {
				if n := f.countUnreadLocked(convID, userID); n > 0 {
					res[convID] = n
				}
			}
		}
	}
	return res, nil
}

func (f *fakeConvRepo) GetExpiredTemporaryIDs(_ context.Context, now time.Time) ([]uint64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var ids []uint64
	for id, conv := range f.st.convs {
		if conv.IsTemporary && conv.ExpiresAt != nil && !conv.ExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeConvRepo) DeleteConversationCascade(_ context.Context, convID uint64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var msgIDs []uint64
	for id, msg := range f.st.messages {
		if msg.ConversationID == convID {
			msgIDs = append(msgIDs, id)
		}
	}
	for _, id := range msgIDs {
		deleteMessageLocked(f.st, id)
	}
	delete(f.st.members, convID)
	if conv := f.st.convs[convID]; conv != nil && conv.DirectKey != nil {
		delete(f.st.directKeys, *conv.DirectKey)
	}
	delete(f.st.convs, convID)
	return nil
}

func deleteMessageLocked(st *memStore, msgID uint64) {
	keepQuotes := st.quotes[:0]
	for _, q := range st.quotes {
		if q.MessageID != msgID && q.QuotedMessageID != msgID {
			keepQuotes = append(keepQuotes, q)
		}
	}
	st.quotes = keepQuotes

	keepMentions := st.mentions[:0]
	for _, m := range st.mentions {
		if m.MessageID != msgID {
			keepMentions = append(keepMentions, m)
		}
	}
	st.mentions = keepMentions

	keepRefs := st.refs[:0]
	for _, r := range st.refs {
		if r.MessageID != msgID {
			keepRefs = append(keepRefs, r)
		}
	}
	st.refs = keepRefs

	keepReactions := st.reactions[:0]
	for _, r := range st.reactions {
		if r.MessageID != msgID {
			keepReactions = append(keepReactions, r)
		}
	}
	st.reactions = keepReactions

	delete(st.messages, msgID)
}

type fakeMessageRepo struct {
	st *memStore
}

func (f *fakeMessageRepo) CreateWithLinks(_ context.Context, msg *model.Message, quote *model.MessageQuote, mentions []*model.MessageMention, refs []*model.MessageEntityRef) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	msg.ID = f.st.id()
	msg.CreatedAt = f.st.tick()
	f.st.messages[msg.ID] = msg

	if quote != nil {
		quote.ID = f.st.id()
		quote.MessageID = msg.ID
		quote.CreatedAt = msg.CreatedAt
		f.st.quotes = append(f.st.quotes, quote)
	}
	for _, m := range mentions {
		m.MessageID = msg.ID
		addMentionLocked(f.st, m)
	}
	for _, r := range refs {
		r.ID = f.st.id()
		r.MessageID = msg.ID
		r.CreatedAt = msg.CreatedAt
		f.st.refs = append(f.st.refs, r)
	}
	return nil
}

func addMentionLocked(st *memStore, m *model.MessageMention) {
	for _, cur := range st.mentions {
		if cur.MessageID == m.MessageID && cur.MentionedUserID == m.MentionedUserID {
			return
		}
	}
	m.ID = st.id()
	m.CreatedAt = st.tick()
	st.mentions = append(st.mentions, m)
}

func (f *fakeMessageRepo) AddMentions(_ context.Context, mentions []*model.MessageMention) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range mentions {
		addMentionLocked(f.st, m)
	}
	return nil
}

func (f *fakeMessageRepo) GetMessage(_ context.Context, msgID uint64) (*model.Message, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	msg, ok := f.st.messages[msgID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return msg, nil
}

func (f *fakeMessageRepo) GetMessagePage(_ context.Context, convID uint64, beforeID uint64, limit int) ([]*model.Message, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var msgs []*model.Message
	for _, msg := range f.st.messages {
		if msg.ConversationID != convID {
			continue
		}
		if beforeID > 0 && msg.ID >= beforeID {
			continue
		}
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID > msgs[j].ID })
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeMessageRepo) GetLastMessages(_ context.Context, convIDs []uint64) (map[uint64]*model.Message, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	res := map[uint64]*model.Message{}
	for _, convID := range convIDs {
		for _, msg := range f.st.messages {
			if msg.ConversationID != convID {
				continue
			}
			if cur, ok := res[convID]; !ok || msg.ID > cur.ID {
				res[convID] = msg
			}
		}
	}
	return res, nil
}

func (f *fakeMessageRepo) MarkMentionsRead(_ context.Context, convID, userID uint64, ts time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, m := range f.st.mentions {
		msg, ok := f.st.messages[m.MessageID]
		if !ok || msg.ConversationID != convID {
			continue
		}
		if m.MentionedUserID == userID && !m.IsRead {
			t := ts
			m.IsRead = true
			m.ReadAt = &t
		}
	}
	return nil
}

func (f *fakeMessageRepo) MarkDirectRead(_ context.Context, convID, readerID uint64, ts time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, msg := range f.st.messages {
		if msg.ConversationID == convID && msg.SenderID != readerID && !msg.ReadStatus {
			t := ts
			msg.ReadStatus = true
			msg.ReadAt = &t
		}
	}
	return nil
}

func (f *fakeMessageRepo) DeleteMessageCascade(_ context.Context, msgID uint64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	deleteMessageLocked(f.st, msgID)
	return nil
}

type fakeReactionRepo struct {
	st *memStore
}

func (f *fakeReactionRepo) Toggle(_ context.Context, msgID, userID uint64, emoji string) (string, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for i, r := range f.st.reactions {
		if r.MessageID == msgID && r.UserID == userID && r.Emoji == emoji {
			f.st.reactions = append(f.st.reactions[:i], f.st.reactions[i+1:]...)
			return repository.ReactionRemoved, nil
		}
	}
	f.st.reactions = append(f.st.reactions, &model.Reaction{
		ID:        f.st.id(),
		MessageID: msgID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: f.st.tick(),
	})
	return repository.ReactionAdded, nil
}

type fakeAggRepo struct {
	st    *memStore
	calls int // 聚合查询总次数
}

func (f *fakeAggRepo) GetReactionRows(_ context.Context, msgIDs []uint64) ([]*repository.ReactionRow, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.calls++
	set := toSet(msgIDs)
	var rows []*repository.ReactionRow
	for _, r := range f.st.reactions {
		if _, ok := set[r.MessageID]; !ok {
			continue
		}
		rows = append(rows, &repository.ReactionRow{
			MessageID: r.MessageID,
			Emoji:     r.Emoji,
			UserID:    r.UserID,
			Nickname:  f.nicknameLocked(r.UserID),
			CreatedAt: r.CreatedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

func (f *fakeAggRepo) GetQuoteRows(_ context.Context, msgIDs []uint64) ([]*repository.QuoteRow, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.calls++
	set := toSet(msgIDs)
	var rows []*repository.QuoteRow
	for _, q := range f.st.quotes {
		if _, ok := set[q.MessageID]; !ok {
			continue
		}
		row := &repository.QuoteRow{
			MessageID:       q.MessageID,
			QuotedMessageID: q.QuotedMessageID,
			QuotedBy:        q.QuotedBy,
			Snippet:         q.Snippet,
		}
		if quoted, ok := f.st.messages[q.QuotedMessageID]; ok {
			row.Content = quoted.Content
			row.SenderID = quoted.SenderID
			row.SenderName = f.nicknameLocked(quoted.SenderID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeAggRepo) GetMentionRows(_ context.Context, msgIDs []uint64) ([]*repository.MentionRow, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.calls++
	set := toSet(msgIDs)
	var rows []*repository.MentionRow
	for _, m := range f.st.mentions {
		if _, ok := set[m.MessageID]; !ok {
			continue
		}
		rows = append(rows, &repository.MentionRow{
			MessageID:       m.MessageID,
			MentionedUserID: m.MentionedUserID,
			Nickname:        f.nicknameLocked(m.MentionedUserID),
			MentionedBy:     m.MentionedBy,
			MentionedByName: f.nicknameLocked(m.MentionedBy),
			IsRead:          m.IsRead,
			ReadAt:          m.ReadAt,
			CreatedAt:       m.CreatedAt,
		})
	}
	return rows, nil
}

func (f *fakeAggRepo) GetEntityRefRows(_ context.Context, msgIDs []uint64) ([]*repository.EntityRefRow, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.calls++
	set := toSet(msgIDs)
	var rows []*repository.EntityRefRow
	for _, r := range f.st.refs {
		if _, ok := set[r.MessageID]; !ok {
			continue
		}
		rows = append(rows, &repository.EntityRefRow{
			MessageID:  r.MessageID,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Label:      r.Label,
		})
	}
	return rows, nil
}

func (f *fakeAggRepo) callCount() int {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.calls
}

func (f *fakeAggRepo) resetCalls() {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.calls = 0
}

func (f *fakeAggRepo) nicknameLocked(userID uint64) string {
	if u, ok := f.st.users[userID]; ok {
		return u.Nickname
	}
	return ""
}

func toSet(ids []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

type fakeUserRepo struct {
	st *memStore
}

func (f *fakeUserRepo) GetUser(_ context.Context, userID uint64) (*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUsersByIDs(_ context.Context, userIDs []uint64) (map[uint64]*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	res := map[uint64]*model.User{}
	for _, id := range userIDs {
		if u, ok := f.st.users[id]; ok {
			res[id] = u
		}
	}
	return res, nil
}

func (f *fakeUserRepo) ExistAll(_ context.Context, userIDs []uint64) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, id := range userIDs {
		if _, ok := f.st.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// userPublish 一次用户频道发布的记录
type userPublish struct {
	userIDs []uint64
	skip    uint64
	event   *dto.RealtimeEvent
}

type fakeBroadcaster struct {
	mu         sync.Mutex
	convEvents []*dto.RealtimeEvent
	userPubs   []userPublish
}

func (f *fakeBroadcaster) PublishToConversation(_ context.Context, _ uint64, event *dto.RealtimeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convEvents = append(f.convEvents, event)
	return nil
}

func (f *fakeBroadcaster) PublishToUsers(_ context.Context, userIDs []uint64, skip uint64, event *dto.RealtimeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userPubs = append(f.userPubs, userPublish{userIDs: userIDs, skip: skip, event: event})
	return nil
}

func (f *fakeBroadcaster) convEventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.convEvents)
}

func (f *fakeBroadcaster) lastUserPub() (userPublish, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.userPubs) == 0 {
		return userPublish{}, false
	}
	return f.userPubs[len(f.userPubs)-1], true
}

func (f *fakeBroadcaster) allUserPubs() []userPublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]userPublish(nil), f.userPubs...)
}

func (f *fakeBroadcaster) userPubByType(typ string) (userPublish, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.userPubs) - 1; i >= 0; i-- {
		if f.userPubs[i].event.Type == typ {
			return f.userPubs[i], true
		}
	}
	return userPublish{}, false
}

type fakeTempMedia struct {
	mu       sync.Mutex
	released []string
}

func (f *fakeTempMedia) Release(_ context.Context, keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, keys...)
}

func (f *fakeTempMedia) releasedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*dto.PushEvent
}

func (f *fakeNotifier) Notify(_ context.Context, evt *dto.PushEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeNotifier) last() *dto.PushEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

// newTestEnv 组装一套共享同一内存数据集的服务
type testEnv struct {
	st          *memStore
	convRepo    *fakeConvRepo
	messageRepo *fakeMessageRepo
	aggRepo     *fakeAggRepo
	broadcaster *fakeBroadcaster
	notifier    *fakeNotifier
	tempMedia   *fakeTempMedia
	convSvc     ConversationService
	messageSvc  MessageService
	reactionSvc ReactionService
}

func newTestEnv() *testEnv {
	st := newMemStore()
	convRepo := &fakeConvRepo{st: st}
	messageRepo := &fakeMessageRepo{st: st}
	reactionRepo := &fakeReactionRepo{st: st}
	aggRepo := &fakeAggRepo{st: st}
	userRepo := &fakeUserRepo{st: st}
	broadcaster := &fakeBroadcaster{}
	notifier := &fakeNotifier{}
	tempMedia := &fakeTempMedia{}

	return &testEnv{
		st:          st,
		convRepo:    convRepo,
		messageRepo: messageRepo,
		aggRepo:     aggRepo,
		broadcaster: broadcaster,
		notifier:    notifier,
		tempMedia:   tempMedia,
		convSvc:     NewConversationService(convRepo, messageRepo, userRepo, broadcaster),
		messageSvc:  NewMessageService(convRepo, messageRepo, aggRepo, userRepo, broadcaster, notifier, tempMedia),
		reactionSvc: NewReactionService(convRepo, messageRepo, reactionRepo, aggRepo, broadcaster),
	}
}
