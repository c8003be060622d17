package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
)

// Scenario 模拟场景
type Scenario string

const (
	ScenarioNormal   Scenario = "normal"
	ScenarioExercise Scenario = "exercise"
	ScenarioRest     Scenario = "rest"
	ScenarioSleep    Scenario = "sleep"
)

// channelPattern 单通道的正弦波形参数
type channelPattern struct {
	Freq      float64 // Hz
	Amplitude float64
	Min, Max  float64 // 生理约束
}

var patterns = map[string]channelPattern{
	"heart_rate":  {Freq: 0.1, Amplitude: 10, Min: 45, Max: 180},
	"spo2":        {Freq: 0.05, Amplitude: 2, Min: 90, Max: 100},
	"temperature": {Freq: 0.02, Amplitude: 0.3, Min: 35.5, Max: 38.5},
	"activity":    {Freq: 0.15, Amplitude: 40, Min: 0, Max: 150},
}

// normalBaselines 正常场景基线
var normalBaselines = map[string]float64{
	"heart_rate":  75.0,
	"spo2":        98.0,
	"temperature": 36.8,
	"activity":    30.0,
}

// Simulator 穿戴设备数据模拟器
//
// 按正弦 + 高斯噪声生成四通道采样，带生理范围裁剪。
// 后台循环按采样周期推进，电量缓慢下降、信号强度小幅抖动。
// 随机源由外部注入，测试时可用固定种子。
type Simulator struct {
	mu sync.Mutex

	deviceID        string
	firmwareVersion string
	batteryLevel    float64
	signalStrength  int // RSSI dBm

	baselines  map[string]float64
	scenario   Scenario
	timeOffset float64

	rng    *rand.Rand
	logger *zap.Logger

	running    bool
	current    models.Sample
	lastUpdate time.Time
}

// New 创建模拟器，rng 传 nil 时使用时间种子
func New(deviceID string, rng *rand.Rand, logger *zap.Logger) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baselines := make(map[string]float64, len(normalBaselines))
	for k, v := range normalBaselines {
		baselines[k] = v
	}

	return &Simulator{
		deviceID:        deviceID,
		firmwareVersion: "2.1.4",
		batteryLevel:    87.0,
		signalStrength:  -70 + rng.Intn(31), // [-70,-40]
		baselines:       baselines,
		scenario:        ScenarioNormal,
		rng:             rng,
		logger:          logger,
	}
}

// Run 后台生成循环，随上下文取消退出
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("simulator started",
		zap.String("device_id", s.deviceID),
		zap.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.logger.Info("simulator stopped", zap.String("device_id", s.deviceID))
			return
		case <-ticker.C:
			s.mu.Lock()
			s.current = s.generateLocked()
			s.lastUpdate = time.Now()
			// 电量缓慢下降，信号强度随机抖动
			s.batteryLevel = math.Max(0, s.batteryLevel-0.0001)
			s.signalStrength = -70 + s.rng.Intn(31)
			s.mu.Unlock()
		}
	}
}

// Next 生成并返回下一条采样（循环外的按需调用）
func (s *Simulator) Next() models.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.generateLocked()
	s.lastUpdate = time.Now()
	return s.current
}

// Current 最近一条采样，循环尚未产出时现场生成
func (s *Simulator) Current() models.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastUpdate.IsZero() {
		s.current = s.generateLocked()
		s.lastUpdate = time.Now()
	}
	return s.current
}

// generateLocked 正弦 + 噪声 + 生理裁剪，调用方持锁
func (s *Simulator) generateLocked() models.Sample {
	gen := func(channel string) float64 {
		p := patterns[channel]
		base := s.baselines[channel]
		wave := p.Amplitude * math.Sin(2*math.Pi*p.Freq*s.timeOffset)
		noise := s.rng.NormFloat64() * p.Amplitude * 0.2
		v := base + wave + noise
		if v < p.Min {
			v = p.Min
		}
		if v > p.Max {
			v = p.Max
		}
		return math.Round(v*100) / 100
	}

	sample := models.Sample{
		HeartRate:   gen("heart_rate"),
		SpO2:        gen("spo2"),
		Temperature: gen("temperature"),
		Activity:    gen("activity"),
	}
	s.timeOffset += 0.01
	return sample
}

// DeviceStatus 当前设备状态
func (s *Simulator) DeviceStatus() models.DeviceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.DeviceStatus{
		DeviceID:        s.deviceID,
		IsConnected:     s.running,
		BatteryLevel:    math.Round(s.batteryLevel*10) / 10,
		SignalStrength:  s.signalStrength,
		FirmwareVersion: s.firmwareVersion,
		LastUpdated:     time.Now(),
	}
}

// SetScenario 切换模拟场景，调整各通道基线
func (s *Simulator) SetScenario(scenario Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch scenario {
	case ScenarioNormal:
		for k, v := range normalBaselines {
			s.baselines[k] = v
		}
	case ScenarioExercise:
		s.baselines["heart_rate"] = 140.0
		s.baselines["activity"] = 120.0
		s.baselines["temperature"] = 37.5
	case ScenarioRest:
		s.baselines["heart_rate"] = 60.0
		s.baselines["activity"] = 5.0
		s.baselines["temperature"] = 36.5
	case ScenarioSleep:
		s.baselines["heart_rate"] = 55.0
		s.baselines["activity"] = 0.0
		s.baselines["temperature"] = 36.3
		s.baselines["spo2"] = 97.0
	default:
		return fmt.Errorf("unknown scenario: %s", scenario)
	}

	s.scenario = scenario
	s.logger.Info("simulator scenario changed",
		zap.String("device_id", s.deviceID),
		zap.String("scenario", string(scenario)),
	)
	return nil
}

// Scenario 当前场景
func (s *Simulator) Scenario() Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenario
}

// InjectAnomaly 向指定通道注入异常（spike 抬升基线，drop 压低基线）
func (s *Simulator) InjectAnomaly(channel, anomaly string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := s.baselines[channel]
	if !ok {
		return fmt.Errorf("unknown signal channel: %s", channel)
	}

	switch anomaly {
	case "spike":
		s.baselines[channel] = base * (1.3 + s.rng.Float64()*0.2)
	case "drop":
		s.baselines[channel] = base * (0.6 + s.rng.Float64()*0.2)
	default:
		return fmt.Errorf("unknown anomaly type: %s", anomaly)
	}

	s.logger.Warn("anomaly injected",
		zap.String("device_id", s.deviceID),
		zap.String("channel", channel),
		zap.String("anomaly", anomaly),
	)
	return nil
}

// IsRunning 后台循环是否在运行
func (s *Simulator) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
