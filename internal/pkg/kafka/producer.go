package kafka

import (
	"Crewboard/internal/api/config"
	log "log/slog"

	"github.com/IBM/sarama"
)

// newSaramaConfig 统一初始化 sarama.Config
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Return.Errors = true
	c.Producer.Return.Successes = false

	return c
}

// Producer 异步生产者封装，推送事件走这里出站
type Producer struct {
	async sarama.AsyncProducer
}

// NewProducer 构造函数：创建异步生产者并启动错误消费协程
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	async, err := sarama.NewAsyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}

	go func() {
		for e := range async.Errors() {
			log.Error("kafka produce failed", "topic", e.Msg.Topic, "err", e.Err)
		}
	}()

	return &Producer{async: async}, nil
}

// Send 异步发送一条消息，key 用于分区内保序
func (p *Producer) Send(topic, key string, value []byte) {
	p.async.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
}

// Close 关闭生产者，排空待发送队列
func (p *Producer) Close() error {
	return p.async.Close()
}
