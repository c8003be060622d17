package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
)

// InsightEvent 推送给外部集成方的洞察事件
type InsightEvent struct {
	DeviceID      string               `json:"device_id"`
	Timestamp     time.Time            `json:"timestamp"`
	Condition     string               `json:"condition"`
	Confidence    float64              `json:"confidence"`
	WellnessScore float64              `json:"wellness_score"`
	RiskFactors   []string             `json:"risk_factors"`
	Insight       models.InsightResult `json:"insight"`
}

// WebhookNotifier 向外部集成 webhook 推送洞察事件
//
// 推送失败只记日志不上抛，外部集成不能阻塞分析链路。
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier 创建推送器，url 为空时 Notify 为空操作
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &WebhookNotifier{
		client: client,
		url:    url,
		logger: logger,
	}
}

// Enabled 是否配置了推送地址
func (n *WebhookNotifier) Enabled() bool { return n.url != "" }

// Notify 推送一条洞察事件
func (n *WebhookNotifier) Notify(ctx context.Context, deviceID string, result models.StreamResult) error {
	if !n.Enabled() {
		return nil
	}

	event := InsightEvent{
		DeviceID:      deviceID,
		Timestamp:     result.Timestamp,
		Condition:     result.InsightLayer.Condition,
		Confidence:    result.InsightLayer.Confidence,
		WellnessScore: result.InsightLayer.WellnessScore,
		RiskFactors:   result.InsightLayer.RiskFactors,
		Insight:       result.InsightLayer,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.url)
	if err != nil {
		n.logger.Error("webhook delivery failed",
			zap.String("device_id", deviceID),
			zap.String("url", n.url),
			zap.Error(err),
		)
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	if resp.IsError() {
		n.logger.Error("webhook rejected",
			zap.String("device_id", deviceID),
			zap.Int("status", resp.StatusCode()),
		)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Debug("webhook delivered",
		zap.String("device_id", deviceID),
		zap.String("condition", event.Condition),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
