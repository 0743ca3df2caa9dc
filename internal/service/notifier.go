package service

import (
	"Crewboard/internal/api/config"
	"Crewboard/internal/api/dto"
	"Crewboard/internal/pkg/kafka"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// Notifier 离线推送出口
// 收件人列表由调用方整理好：发送者本人和开了免打扰的成员不在其中
type Notifier interface {
	Notify(ctx context.Context, evt *dto.PushEvent) error
}

// NewNotifier 按配置选择推送通道，mode 为 kafka 或 http，其余值关闭推送
func NewNotifier(cfg config.PushConfig, producer *kafka.Producer) Notifier {
	switch cfg.Mode {
	case "kafka":
		return &kafkaNotifier{producer: producer, topic: cfg.Topic}
	case "http":
		client := resty.New().
			SetBaseURL(cfg.GatewayURL).
			SetTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond).
			SetRetryCount(2)
		return &httpNotifier{client: client}
	default:
		return &noopNotifier{}
	}
}

type kafkaNotifier struct {
	producer *kafka.Producer
	topic    string
}

// Notify 投递到推送主题，按会话分区保序
func (s *kafkaNotifier) Notify(_ context.Context, evt *dto.PushEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	s.producer.Send(s.topic, strconv.FormatUint(evt.ConversationID, 10), data)
	return nil
}

type httpNotifier struct {
	client *resty.Client
}

// Notify 调用推送网关
func (s *httpNotifier) Notify(ctx context.Context, evt *dto.PushEvent) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(evt).
		Post("/push/events")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode())
	}
	return nil
}

type noopNotifier struct{}

func (s *noopNotifier) Notify(_ context.Context, evt *dto.PushEvent) error {
	log.Debug("push disabled, dropping event", "event", evt.Event, "conv_id", evt.ConversationID)
	return nil
}
