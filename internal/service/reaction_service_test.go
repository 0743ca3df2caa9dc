package service

import (
	"Crewboard/internal/api/dto"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionService_Toggle(t *testing.T) {
	env := newTestEnv()
	env.st.addUser(1, "Anna")
	env.st.addUser(2, "Ben")
	ctx := context.Background()

	msg, err := env.messageSvc.SendMessage(ctx, 1, &dto.SendMessageReq{ReceiverID: 2, Content: "好消息"})
	require.NoError(t, err)

	t.Run("加与取消交替", func(t *testing.T) {
		res, err := env.reactionSvc.ToggleReaction(ctx, 2, msg.ID, "🎉")
		require.NoError(t, err)
		assert.Equal(t, "added", res.Action)
		require.Len(t, res.Reactions, 1)
		assert.Equal(t, 1, res.Reactions[0].Count)

		res, err = env.reactionSvc.ToggleReaction(ctx, 2, msg.ID, "🎉")
		require.NoError(t, err)
		assert.Equal(t, "removed", res.Action)
		assert.Empty(t, res.Reactions)

		res, err = env.reactionSvc.ToggleReaction(ctx, 2, msg.ID, "🎉")
		require.NoError(t, err)
		assert.Equal(t, "added", res.Action)
		require.Len(t, res.Reactions, 1)
	})

	t.Run("同消息多人多表情聚合", func(t *testing.T) {
		_, err := env.reactionSvc.ToggleReaction(ctx, 1, msg.ID, "🎉")
		require.NoError(t, err)
		res, err := env.reactionSvc.ToggleReaction(ctx, 1, msg.ID, "👀")
		require.NoError(t, err)

		require.Len(t, res.Reactions, 2)
		byEmoji := map[string]dto.ReactionSummary{}
		for _, summary := range res.Reactions {
			byEmoji[summary.Emoji] = summary
		}
		assert.Equal(t, 2, byEmoji["🎉"].Count)
		assert.Equal(t, 1, byEmoji["👀"].Count)
		// 同一表情下按首次回应时间排序
		assert.Equal(t, uint64(2), byEmoji["🎉"].Users[0].UserID)
		assert.Equal(t, "Ben", byEmoji["🎉"].Users[0].Nickname)
	})

	t.Run("不同表情互不影响", func(t *testing.T) {
		res, err := env.reactionSvc.ToggleReaction(ctx, 1, msg.ID, "👀")
		require.NoError(t, err)
		assert.Equal(t, "removed", res.Action)

		require.Len(t, res.Reactions, 1)
		assert.Equal(t, "🎉", res.Reactions[0].Emoji)
		assert.Equal(t, 2, res.Reactions[0].Count)
	})

	t.Run("切换走双通道广播", func(t *testing.T) {
		_, err := env.reactionSvc.ToggleReaction(ctx, 2, msg.ID, "❤️")
		require.NoError(t, err)

		// 会话频道之外，成员个人频道也收到事件并跳过触发者
		require.Eventually(t, func() bool {
			pub, ok := env.broadcaster.userPubByType(EventReactionUpdated)
			return ok && pub.skip == 2
		}, time.Second, 10*time.Millisecond)
		pub, _ := env.broadcaster.userPubByType(EventReactionUpdated)
		assert.ElementsMatch(t, []uint64{1, 2}, pub.userIDs)
	})

	t.Run("空表情被拒", func(t *testing.T) {
		_, err := env.reactionSvc.ToggleReaction(ctx, 2, msg.ID, "")
		assert.ErrorIs(t, err, ErrEmojiInvalid)
	})

	t.Run("非成员被拒", func(t *testing.T) {
		env.st.addUser(3, "Carla")
		_, err := env.reactionSvc.ToggleReaction(ctx, 3, msg.ID, "🎉")
		assert.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("消息不存在被拒", func(t *testing.T) {
		_, err := env.reactionSvc.ToggleReaction(ctx, 2, 9999, "🎉")
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})
}
