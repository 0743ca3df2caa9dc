package service

import (
	"Crewboard/internal/pkg/consts"
	"Crewboard/internal/pkg/redis"
	"context"
	log "log/slog"
)

// TempMediaStore 临时附件登记表
// 上传先登记待清理，消息落库后摘除登记，清理任务只回收无人引用的对象
type TempMediaStore interface {
	Release(ctx context.Context, keys []string)
}

type redisTempMediaStore struct{}

func NewRedisTempMediaStore() TempMediaStore {
	return &redisTempMediaStore{}
}

func (s *redisTempMediaStore) Release(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := redis.HDel(ctx, consts.MediaTempKey, keys...); err != nil {
		log.Warn("摘除临时附件登记失败", "keys", keys, "err", err)
	}
}
