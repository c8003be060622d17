package pipeline

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
)

// Pipeline 单个监测对象的四阶段分析流水线
//
// 每个被监测对象持有独立实例，四个阶段的历史缓冲均为私有内存状态。
// 阶段内部没有阻塞 I/O，单次 Process 在采样周期预算内完成。
// 缓冲的追加/淘汰在并发修改下不安全，由实例级互斥锁保证串行执行。
type Pipeline struct {
	mu       sync.Mutex
	quality  *QualityStage
	spectral *SpectralStage
	temporal *TemporalStage
	insight  *InsightStage
	logger   *zap.Logger
}

// NewPipeline 创建流水线实例
// rng 为洞察层的随机源，传 nil 时使用时间种子
func NewPipeline(rng *rand.Rand, logger *zap.Logger) *Pipeline {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		quality:  NewQualityStage(),
		spectral: NewSpectralStage(),
		temporal: NewTemporalStage(),
		insight:  NewInsightStage(rng),
		logger:   logger,
	}
}

// Process 把一条采样按固定顺序跑完四个阶段
// 流水线对合法生理输入是全函数：内部一律用回退值处理除零与历史不足，不返回错误
func (p *Pipeline) Process(raw models.Sample) models.StreamResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	qualityResult := p.quality.Process(now, raw)
	p.logger.Debug("quality layer processed",
		zap.Float64("quality_score", qualityResult.QualityScore),
		zap.Float64("snr_db", qualityResult.SignalToNoise),
		zap.Bool("noise_reduced", qualityResult.NoiseReduced),
	)

	spectralResult := p.spectral.Process(qualityResult.ProcessedData)
	p.logger.Debug("spectral layer processed",
		zap.Float64("dominant_freq_hz", spectralResult.DominantFrequency),
		zap.Float64("hrv_score", spectralResult.HRVFeatures.HRVScore),
		zap.String("rhythm", string(spectralResult.Rhythm)),
	)

	temporalResult := p.temporal.Process(now, spectralResult.EnhancedData)
	p.logger.Debug("temporal layer processed",
		zap.String("pattern", string(temporalResult.PatternType)),
		zap.String("circadian_phase", string(temporalResult.CircadianPhase)),
		zap.Float64("temporal_consistency", temporalResult.TemporalConsistency),
	)

	insightResult := p.insight.Analyze(raw, qualityResult, spectralResult, temporalResult)
	p.logger.Debug("insight layer processed",
		zap.String("condition", insightResult.Condition),
		zap.Float64("confidence", insightResult.Confidence),
		zap.Float64("wellness_score", insightResult.WellnessScore),
	)

	return models.StreamResult{
		Timestamp:     now,
		RawSignals:    raw,
		QualityLayer:  qualityResult,
		SpectralLayer: spectralResult,
		TemporalLayer: temporalResult,
		InsightLayer:  insightResult,
	}
}

// QualityHistoryLen 各阶段缓冲长度，供监控与测试
func (p *Pipeline) QualityHistoryLen() int  { return p.quality.HistoryLen() }
func (p *Pipeline) HRBufferLen() int        { return p.spectral.HRBufferLen() }
func (p *Pipeline) RRBufferLen() int        { return p.spectral.RRBufferLen() }
func (p *Pipeline) TemporalBufferLen() int  { return p.temporal.BufferLen() }
func (p *Pipeline) ConditionHistoryLen() int { return p.insight.HistoryLen() }

// Manager 按设备管理流水线实例
// 一个设备对应一个实例，实例在连接时创建、监测结束时释放
type Manager struct {
	mu        sync.Mutex
	pipelines map[string]*Pipeline
	logger    *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pipelines: make(map[string]*Pipeline),
		logger:    logger,
	}
}

// Get 获取设备的流水线，不存在时创建
func (m *Manager) Get(deviceID string) *Pipeline {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pipelines[deviceID]; ok {
		return p
	}
	p := NewPipeline(nil, m.logger.With(zap.String("device_id", deviceID)))
	m.pipelines[deviceID] = p
	m.logger.Info("pipeline created", zap.String("device_id", deviceID))
	return p
}

// Release 释放设备的流水线，历史缓冲随之丢弃
func (m *Manager) Release(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pipelines[deviceID]; ok {
		delete(m.pipelines, deviceID)
		m.logger.Info("pipeline released", zap.String("device_id", deviceID))
	}
}

// Count 当前实例数
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pipelines)
}
