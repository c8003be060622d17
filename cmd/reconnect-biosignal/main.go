package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"reconnect-biosignal/internal/config"
	logpkg "reconnect-biosignal/internal/logger"
	"reconnect-biosignal/internal/service"
)

func main() {
	// .env 可选，缺失时直接用环境变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	logger, err := logpkg.New(cfg.Log.Level, cfg.Log.Format, "reconnect-biosignal")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting reconnect-biosignal service",
		zap.String("version", "1.0.0"),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("device_id", cfg.Biosignal.DeviceID),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	// 创建服务
	biosignalService, err := service.NewBiosignalService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create biosignal service", zap.Error(err))
	}

	// 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := biosignalService.Start(ctx); err != nil {
		logger.Fatal("Failed to start biosignal service", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	cancel()
	if err := biosignalService.Stop(context.Background()); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Service stopped")
}
