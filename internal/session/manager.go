package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
)

const keyPrefix = "biosignal:session:"

// Manager 监测会话管理器
//
// 会话是不透明的 KV 生命周期记录：创建、按采样累积统计、结束。
// 存储经 KVStore 抽象走 Redis，测试用 miniredis。
type Manager struct {
	store  KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager 创建会话管理器，ttl <= 0 表示会话不过期
func NewManager(store KVStore, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, ttl: ttl, logger: logger}
}

// Create 创建新会话
func (m *Manager) Create(ctx context.Context, deviceID, userID string, sessionType models.SessionType, metadata map[string]string) (*models.Session, error) {
	if sessionType == "" {
		sessionType = models.SessionDailyMonitoring
	}

	s := &models.Session{
		SessionID:   uuid.New().String(),
		DeviceID:    deviceID,
		UserID:      userID,
		SessionType: sessionType,
		StartTime:   time.Now(),
		Status:      "active",
		Metadata:    metadata,
	}

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.Info("session created",
		zap.String("session_id", s.SessionID),
		zap.String("device_id", deviceID),
		zap.String("session_type", string(sessionType)),
	)
	return s, nil
}

// Get 按 ID 查询会话
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := m.store.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		return nil, err
	}

	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &s, nil
}

// RecordDataPoint 累积一条采样的统计：计数 +1，健康分滚动平均
func (m *Manager) RecordDataPoint(ctx context.Context, sessionID string, wellnessScore float64) error {
	s, err := m.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Status != "active" {
		return fmt.Errorf("session %s is not active", sessionID)
	}

	n := float64(s.DataPointsCollected)
	avg := wellnessScore
	if s.AverageWellness != nil {
		avg = (*s.AverageWellness*n + wellnessScore) / (n + 1)
	}
	s.DataPointsCollected++
	s.AverageWellness = &avg

	return m.save(ctx, s)
}

// End 结束会话并生成摘要
func (m *Manager) End(ctx context.Context, sessionID string) (*models.Session, error) {
	s, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != "active" {
		return nil, fmt.Errorf("session %s already ended", sessionID)
	}

	now := time.Now()
	s.EndTime = &now
	s.Status = "completed"
	s.Summary = buildSummary(s, now)

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.Info("session ended",
		zap.String("session_id", sessionID),
		zap.Int("data_points", s.DataPointsCollected),
	)
	return s, nil
}

// ActiveCount 当前活跃会话数
func (m *Manager) ActiveCount(ctx context.Context) (int, error) {
	keys, err := m.store.Keys(ctx, keyPrefix+"*")
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		raw, err := m.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var s models.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		if s.Status == "active" {
			count++
		}
	}
	return count, nil
}

// Delete 删除会话记录
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, keyPrefix+sessionID)
}

func (m *Manager) save(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", s.SessionID, err)
	}
	if err := m.store.Set(ctx, keyPrefix+s.SessionID, string(data), m.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.SessionID, err)
	}
	return nil
}

func buildSummary(s *models.Session, end time.Time) string {
	duration := end.Sub(s.StartTime).Round(time.Second)

	parts := []string{
		fmt.Sprintf("Type: %s", s.SessionType),
		fmt.Sprintf("Duration: %s", duration),
		fmt.Sprintf("Data points: %d", s.DataPointsCollected),
	}
	if s.AverageWellness != nil {
		parts = append(parts, fmt.Sprintf("Average wellness: %.1f/100", *s.AverageWellness))
	}
	return strings.Join(parts, " | ")
}
