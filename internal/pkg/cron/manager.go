package cron

import (
	"Crewboard/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine    *cron.Cron
	expiryJob *job.ConversationExpiryJob
	mediaJob  *job.MediaCleanupJob
}

func NewCronManager(expiryJob *job.ConversationExpiryJob, mediaJob *job.MediaCleanupJob) *Manager {
	return &Manager{
		engine:    cron.New(cron.WithSeconds()),
		expiryJob: expiryJob,
		mediaJob:  mediaJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	// 临时会话过期扫描，每十分钟一轮
	if _, err := s.engine.AddJob("0 */10 * * * *", s.expiryJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob("@daily", s.mediaJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
