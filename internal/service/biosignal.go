package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"reconnect-biosignal/internal/config"
	"reconnect-biosignal/internal/consumer"
	"reconnect-biosignal/internal/httpapi"
	"reconnect-biosignal/internal/models"
	"reconnect-biosignal/internal/notifier"
	"reconnect-biosignal/internal/pipeline"
	"reconnect-biosignal/internal/proclog"
	"reconnect-biosignal/internal/session"
	"reconnect-biosignal/internal/simulator"
	"reconnect-biosignal/internal/stream"
)

// BiosignalService 生理信号分析服务
//
// 装配顺序：Redis → 会话管理 → 流水线管理 → 模拟器 → 发布器 →
// webhook 推送器 → MQTT 消费者（可选）→ HTTP 服务。
type BiosignalService struct {
	config *config.Config
	logger *zap.Logger

	redisClient *redis.Client
	sessions    *session.Manager
	pipelines   *pipeline.Manager
	sim         *simulator.Simulator
	publisher   *stream.Publisher
	webhook     *notifier.WebhookNotifier
	plog        *proclog.Log

	mqttClient     *consumer.MQTTClient
	sampleConsumer *consumer.SampleConsumer

	httpServer *httpapi.Server
}

// NewBiosignalService 创建并装配服务
func NewBiosignalService(cfg *config.Config, logger *zap.Logger) (*BiosignalService, error) {
	s := &BiosignalService{
		config:    cfg,
		logger:    logger,
		pipelines: pipeline.NewManager(logger),
		sim:       simulator.New(cfg.Biosignal.DeviceID, nil, logger),
		webhook:   notifier.NewWebhookNotifier(cfg.Biosignal.WebhookURL, cfg.Biosignal.WebhookTimeout, logger),
		plog:      proclog.New(0),
	}

	// Redis：会话存储 + 结果发布；关闭时两者退化为不可用
	if cfg.Redis.Enabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		s.sessions = session.NewManager(
			session.NewRedisKVStore(s.redisClient),
			time.Duration(cfg.Biosignal.Cache.SessionTTL)*time.Second,
			logger,
		)
		s.publisher = stream.NewPublisher(
			s.redisClient,
			cfg.Biosignal.Stream.Insights,
			cfg.Biosignal.Cache.RealtimeKeyPrefix,
			cfg.Biosignal.Cache.RealtimeTTL,
			logger,
		)
	} else {
		logger.Warn("redis disabled, sessions and result publishing unavailable")
	}

	// MQTT：接入真实穿戴设备时启用
	if cfg.MQTT.Enabled {
		mqttClient, err := consumer.NewMQTTClient(consumer.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT client: %w", err)
		}
		s.mqttClient = mqttClient
		s.sampleConsumer = consumer.NewSampleConsumer(
			mqttClient,
			cfg.MQTT.Topic,
			s.pipelines,
			s.publishResult,
			logger,
		)
	}

	handler := httpapi.NewBiosignalHandler(s, s.sessions, s.sim, s.plog, logger)
	s.httpServer = httpapi.NewServer(cfg.HTTP.Addr, handler, logger)

	return s, nil
}

// Start 启动后台组件，非阻塞
func (s *BiosignalService) Start(ctx context.Context) error {
	s.logger.Info("starting biosignal service components")

	go s.sim.Run(ctx, s.config.Biosignal.SampleInterval)

	if s.sampleConsumer != nil {
		if err := s.sampleConsumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sample consumer: %w", err)
		}
	}

	go func() {
		if err := s.httpServer.Start(); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.logger.Info("biosignal service started successfully",
		zap.String("addr", s.config.HTTP.Addr),
		zap.String("device_id", s.config.Biosignal.DeviceID),
	)
	return nil
}

// Stop 停止服务
func (s *BiosignalService) Stop(ctx context.Context) error {
	s.logger.Info("stopping biosignal service")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("error shutting down HTTP server", zap.Error(err))
	}

	if s.sampleConsumer != nil {
		if err := s.sampleConsumer.Stop(ctx); err != nil {
			s.logger.Error("error stopping sample consumer", zap.Error(err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("error closing redis client", zap.Error(err))
		}
	}

	s.logger.Info("biosignal service stopped")
	return nil
}

// StreamOnce 取当前采样并跑完整条流水线（httpapi.Engine 实现）
func (s *BiosignalService) StreamOnce(ctx context.Context) (models.StreamResult, error) {
	sample := s.sim.Current()
	result := s.pipelines.Get(s.config.Biosignal.DeviceID).Process(sample)

	s.recordLayerLogs(result)
	s.publishResult(ctx, s.config.Biosignal.DeviceID, result)

	return result, nil
}

// DeviceStatus 当前采集设备状态
func (s *BiosignalService) DeviceStatus() models.DeviceStatus {
	return s.sim.DeviceStatus()
}

// ServicesHealth 各组件健康状态
func (s *BiosignalService) ServicesHealth(ctx context.Context) map[string]bool {
	health := map[string]bool{
		"simulator": s.sim.IsRunning(),
		"pipeline":  true,
		"webhook":   s.webhook.Enabled(),
	}

	health["redis"] = false
	if s.publisher != nil {
		health["redis"] = s.publisher.Ping(ctx) == nil
	}

	health["mqtt"] = false
	if s.mqttClient != nil {
		health["mqtt"] = s.mqttClient.IsConnected()
	}
	return health
}

// publishResult 结果出口：Redis 发布同步、webhook 推送异步
// 出口失败只记日志，不影响分析链路
func (s *BiosignalService) publishResult(ctx context.Context, deviceID string, result models.StreamResult) {
	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, deviceID, result); err != nil {
			s.logger.Error("failed to publish result",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}
	}

	if s.webhook.Enabled() {
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), s.config.Biosignal.WebhookTimeout)
			defer cancel()
			_ = s.webhook.Notify(notifyCtx, deviceID, result)
		}()
	}
}

// recordLayerLogs 把各层结果摘要写入处理日志
func (s *BiosignalService) recordLayerLogs(result models.StreamResult) {
	deviceID := s.config.Biosignal.DeviceID

	s.plog.Append(proclog.Entry{
		Layer:    "quality",
		Message:  "signal quality analyzed",
		DeviceID: deviceID,
		Fields: map[string]any{
			"quality_score": result.QualityLayer.QualityScore,
			"snr_db":        result.QualityLayer.SignalToNoise,
			"noise_reduced": result.QualityLayer.NoiseReduced,
		},
	})
	s.plog.Append(proclog.Entry{
		Layer:    "spectral",
		Message:  "frequency analysis completed",
		DeviceID: deviceID,
		Fields: map[string]any{
			"dominant_freq_hz": result.SpectralLayer.DominantFrequency,
			"hrv_score":        result.SpectralLayer.HRVFeatures.HRVScore,
			"rhythm":           string(result.SpectralLayer.Rhythm),
		},
	})
	s.plog.Append(proclog.Entry{
		Layer:    "temporal",
		Message:  "temporal pattern analyzed",
		DeviceID: deviceID,
		Fields: map[string]any{
			"pattern":              string(result.TemporalLayer.PatternType),
			"circadian_phase":      string(result.TemporalLayer.CircadianPhase),
			"temporal_consistency": result.TemporalLayer.TemporalConsistency,
		},
	})
	s.plog.Append(proclog.Entry{
		Layer:    "insight",
		Message:  "health insight generated",
		DeviceID: deviceID,
		Fields: map[string]any{
			"condition":      result.InsightLayer.Condition,
			"confidence":     result.InsightLayer.Confidence,
			"wellness_score": result.InsightLayer.WellnessScore,
		},
	})
}
