package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reconnect-biosignal/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	mr := miniredis.RunT(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Enabled = true
	cfg.MQTT.Enabled = false
	cfg.HTTP.Addr = "127.0.0.1:0"
	return cfg
}

func TestBiosignalService_StreamOnce(t *testing.T) {
	svc, err := NewBiosignalService(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop(context.Background())

	result, err := svc.StreamOnce(context.Background())
	require.NoError(t, err)

	assert.Greater(t, result.RawSignals.HeartRate, 0.0)
	assert.NotEmpty(t, result.InsightLayer.Condition)
	assert.GreaterOrEqual(t, result.InsightLayer.Confidence, 0.70)

	// 每次流水线运行写四条分层处理日志
	assert.Equal(t, 4, svc.plog.Len())

	// 结果进了实时缓存
	cached, err := svc.publisher.GetRealtime(context.Background(), svc.config.Biosignal.DeviceID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, result.InsightLayer.Condition, cached.InsightLayer.Condition)
}

func TestBiosignalService_ServicesHealth(t *testing.T) {
	svc, err := NewBiosignalService(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop(context.Background())

	health := svc.ServicesHealth(context.Background())
	assert.True(t, health["pipeline"])
	assert.True(t, health["redis"])
	assert.False(t, health["mqtt"])
	assert.False(t, health["webhook"])
	// 模拟器后台循环未启动
	assert.False(t, health["simulator"])
}

func TestBiosignalService_RedisDisabled(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Redis.Enabled = false
	cfg.MQTT.Enabled = false
	cfg.HTTP.Addr = "127.0.0.1:0"

	svc, err := NewBiosignalService(cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop(context.Background())

	// 无 Redis 时流水线仍可用，发布与会话退化
	result, err := svc.StreamOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.InsightLayer.Condition)
	assert.Nil(t, svc.publisher)
	assert.Nil(t, svc.sessions)
	assert.False(t, svc.ServicesHealth(context.Background())["redis"])
}
