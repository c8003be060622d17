package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, ":8000", cfg.HTTP.Addr)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.True(t, cfg.Redis.Enabled)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "wearable/+/data", cfg.MQTT.Topic)

	assert.Equal(t, "RECONNECT-SIM-001", cfg.Biosignal.DeviceID)
	assert.Equal(t, 100*time.Millisecond, cfg.Biosignal.SampleInterval)
	assert.Equal(t, "biosignal:insights:stream", cfg.Biosignal.Stream.Insights)
	assert.Equal(t, "biosignal:device:", cfg.Biosignal.Cache.RealtimeKeyPrefix)
	assert.Equal(t, 300, cfg.Biosignal.Cache.RealtimeTTL)
	assert.Equal(t, 86400, cfg.Biosignal.Cache.SessionTTL)
	assert.Equal(t, "", cfg.Biosignal.WebhookURL)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("HTTP_ADDR", ":9000")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("REDIS_ENABLED", "false")
	os.Setenv("MQTT_ENABLED", "true")
	os.Setenv("MQTT_BROKER", "tcp://test-broker:1883")
	os.Setenv("DEVICE_ID", "TEST-DEVICE")
	os.Setenv("SAMPLE_INTERVAL", "250ms")
	os.Setenv("WEBHOOK_URL", "http://hooks.test/insights")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://test-broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "TEST-DEVICE", cfg.Biosignal.DeviceID)
	assert.Equal(t, 250*time.Millisecond, cfg.Biosignal.SampleInterval)
	assert.Equal(t, "http://hooks.test/insights", cfg.Biosignal.WebhookURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("REDIS_DB", "not-a-number")
	os.Setenv("SAMPLE_INTERVAL", "fast")
	os.Setenv("MQTT_ENABLED", "maybe")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	// 无法解析的值退回默认
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 100*time.Millisecond, cfg.Biosignal.SampleInterval)
	assert.False(t, cfg.MQTT.Enabled)
}
