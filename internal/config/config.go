package config

import (
	"os"
	"strconv"
	"time"
)

// Config 生理信号分析服务配置
type Config struct {
	HTTP struct {
		Addr string // 监听地址，如 ":8000"
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		Enabled  bool // 关闭后会话与缓存退化为内存模式
	}

	MQTT struct {
		Enabled  bool   // 打开后从真实穿戴设备接入采样
		Broker   string // 如 "tcp://localhost:1883"
		ClientID string
		Username string
		Password string
		Topic    string // 采样数据主题，如 "wearable/+/data"
	}

	// 生理信号服务特定配置
	Biosignal struct {
		DeviceID       string // 默认（模拟器）设备标识
		SampleInterval time.Duration

		// Redis Streams / 缓存配置
		Stream struct {
			Insights string // 分析结果发布流，如 "biosignal:insights:stream"
		}
		Cache struct {
			RealtimeKeyPrefix string // 实时数据缓存键前缀，如 "biosignal:device:"
			RealtimeTTL       int    // 实时数据 TTL（秒）
			SessionTTL        int    // 会话 TTL（秒），0 表示不过期
		}

		// 外部集成 webhook（为空则不推送）
		WebhookURL     string
		WebhookTimeout time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", true)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "reconnect-biosignal")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "wearable/+/data")

	cfg.Biosignal.DeviceID = getEnv("DEVICE_ID", "RECONNECT-SIM-001")
	cfg.Biosignal.SampleInterval = getEnvDuration("SAMPLE_INTERVAL", 100*time.Millisecond)

	cfg.Biosignal.Stream.Insights = getEnv("STREAM_INSIGHTS", "biosignal:insights:stream")
	cfg.Biosignal.Cache.RealtimeKeyPrefix = getEnv("CACHE_REALTIME_PREFIX", "biosignal:device:")
	cfg.Biosignal.Cache.RealtimeTTL = getEnvInt("CACHE_REALTIME_TTL", 300) // 5分钟
	cfg.Biosignal.Cache.SessionTTL = getEnvInt("SESSION_TTL", 86400)      // 24小时

	cfg.Biosignal.WebhookURL = getEnv("WEBHOOK_URL", "")
	cfg.Biosignal.WebhookTimeout = getEnvDuration("WEBHOOK_TIMEOUT", 5*time.Second)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
