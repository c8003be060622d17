package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
	"reconnect-biosignal/internal/pipeline"
)

// ResultSink 流水线结果回调（发布、会话统计等由上层接线）
type ResultSink func(ctx context.Context, deviceID string, result models.StreamResult)

// SampleConsumer 穿戴设备采样消费者
//
// 订阅 wearable/{device_id}/data，按设备路由到各自的流水线实例。
// 模拟器是默认数据源，本消费者只在接入真实设备时启用。
type SampleConsumer struct {
	mqttClient *MQTTClient
	topic      string
	pipelines  *pipeline.Manager
	sink       ResultSink
	logger     *zap.Logger
}

// NewSampleConsumer 创建采样消费者
func NewSampleConsumer(
	mqttClient *MQTTClient,
	topic string,
	pipelines *pipeline.Manager,
	sink ResultSink,
	logger *zap.Logger,
) *SampleConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleConsumer{
		mqttClient: mqttClient,
		topic:      topic,
		pipelines:  pipelines,
		sink:       sink,
		logger:     logger,
	}
}

// Start 启动消费者
func (c *SampleConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.topic, 1, func(topic string, payload []byte) error {
		return c.handleMessage(ctx, topic, payload)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to data topic: %w", err)
	}

	c.logger.Info("sample consumer started",
		zap.String("topic", c.topic),
	)
	return nil
}

// Stop 停止消费者
func (c *SampleConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
		c.logger.Error("failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("sample consumer stopped")
	return nil
}

// handleMessage 处理一条设备采样消息
func (c *SampleConsumer) handleMessage(ctx context.Context, topic string, payload []byte) error {
	c.logger.Debug("received device sample",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	deviceID, err := deviceIDFromTopic(topic)
	if err != nil {
		return err
	}

	var sample models.Sample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return fmt.Errorf("failed to unmarshal sample: %w", err)
	}

	result := c.pipelines.Get(deviceID).Process(sample)
	if c.sink != nil {
		c.sink(ctx, deviceID, result)
	}
	return nil
}

// deviceIDFromTopic 主题格式: wearable/{device_id}/data
func deviceIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[1] == "" {
		return "", fmt.Errorf("invalid topic format: %s", topic)
	}
	return parts[1], nil
}
