package job

import (
	"Crewboard/internal/repository"
	"context"
	log "log/slog"
	"time"
)

// ConversationExpiryJob 临时会话过期清理任务
// 过期会话在访问路径上已被拦截，这里负责把数据真正清掉
type ConversationExpiryJob struct {
	convRepo repository.ConversationRepo
}

func NewConversationExpiryJob(convRepo repository.ConversationRepo) *ConversationExpiryJob {
	return &ConversationExpiryJob{convRepo: convRepo}
}

func (s *ConversationExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	log.Info("start conversation expiry job")

	ids, err := s.convRepo.GetExpiredTemporaryIDs(ctx, time.Now())
	if err != nil {
		log.Error("查询过期临时会话失败", "err", err)
		return
	}

	count := 0
	for _, id := range ids {
		if err := s.convRepo.DeleteConversationCascade(ctx, id); err != nil {
			log.Error("删除过期临时会话失败", "conv_id", id, "err", err)
			continue
		}
		count++
	}

	if count > 0 {
		log.Info("conversation expiry job finished", "cleaned_count", count)
	}
}
