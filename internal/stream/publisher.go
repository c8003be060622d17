package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
)

// Publisher 分析结果发布器
//
// 每条流水线结果走两条路：
// - Redis Streams（XADD）供下游消费者订阅
// - 实时缓存键 {prefix}{device_id}:realtime，带 TTL，供查询接口直接读取
type Publisher struct {
	client     *redis.Client
	streamName string
	keyPrefix  string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewPublisher 创建发布器
func NewPublisher(client *redis.Client, streamName, keyPrefix string, ttlSeconds int, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:     client,
		streamName: streamName,
		keyPrefix:  keyPrefix,
		ttl:        time.Duration(ttlSeconds) * time.Second,
		logger:     logger,
	}
}

// PublishResult 发布一条完整的流水线结果
func (p *Publisher) PublishResult(ctx context.Context, deviceID string, result models.StreamResult) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal stream result: %w", err)
	}

	// 发布到 Streams
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamName,
		Values: map[string]interface{}{
			"device_id": deviceID,
			"condition": result.InsightLayer.Condition,
			"data":      string(jsonData),
			"timestamp": result.Timestamp.Unix(),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.streamName, err)
	}

	// 更新实时缓存
	key := p.realtimeKey(deviceID)
	if err := p.client.Set(ctx, key, jsonData, p.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set realtime cache: %w", err)
	}

	p.logger.Debug("result published",
		zap.String("device_id", deviceID),
		zap.String("stream_id", id),
		zap.String("condition", result.InsightLayer.Condition),
	)
	return nil
}

// GetRealtime 读取设备的实时缓存结果
func (p *Publisher) GetRealtime(ctx context.Context, deviceID string) (*models.StreamResult, error) {
	raw, err := p.client.Get(ctx, p.realtimeKey(deviceID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get realtime cache: %w", err)
	}

	var result models.StreamResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal realtime cache: %w", err)
	}
	return &result, nil
}

// Ping 检查 Redis 连通性
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Publisher) realtimeKey(deviceID string) string {
	return fmt.Sprintf("%s%s:realtime", p.keyPrefix, deviceID)
}
