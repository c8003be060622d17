package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"reconnect-biosignal/internal/models"
)

const (
	qualityHistorySize = 50
	qualityThreshold   = 0.7 // 总分低于该阈值时启用自适应平滑
)

// QualityStage 信号质量评估与降噪层（流水线第一阶段）
//
// 职责：
// - 各通道质量评分（生理范围惩罚 × 稳定性因子）
// - 低质量时对采样做指数加权平滑
// - SNR 估算与伪迹检测
type QualityStage struct {
	history *sampleRing
}

func NewQualityStage() *QualityStage {
	return &QualityStage{
		history: newSampleRing(qualityHistorySize),
	}
}

// HistoryLen 当前缓冲长度（容量不变式测试用）
func (s *QualityStage) HistoryLen() int {
	return s.history.Len()
}

// Process 处理一条原始采样
// 先把原始采样写入历史缓冲，再基于缓冲计算各项指标
func (s *QualityStage) Process(now time.Time, raw models.Sample) models.QualityResult {
	var prev *models.Sample
	if s.history.Len() > 0 {
		last := s.history.All()[s.history.Len()-1].Data
		prev = &last
	}
	s.history.Push(now, raw)

	metrics := s.calculateQualityMetrics(raw)

	processed, noiseReduced := s.applyNoiseReduction(raw, metrics)

	snr := s.calculateSNR(raw, processed)

	artifacts := s.detectArtifacts(raw, prev, metrics)

	assessment := assessQuality(metrics.OverallQuality)

	notes := qualityNotes(metrics.OverallQuality, snr, noiseReduced, artifacts)

	return models.QualityResult{
		ProcessedData:     processed,
		QualityScore:      metrics.OverallQuality,
		SignalToNoise:     snr,
		NoiseReduced:      noiseReduced,
		QualityMetrics:    metrics,
		QualityAssessment: assessment,
		Artifacts:         artifacts,
		ProcessingNotes:   notes,
	}
}

// calculateQualityMetrics 各通道质量评分
// 起始 1.0，依次乘以范围惩罚因子（极端值重罚、边界值轻罚）和稳定性因子
func (s *QualityStage) calculateQualityMetrics(data models.Sample) models.QualityMetrics {
	hrQuality := 1.0
	if data.HeartRate < 40 || data.HeartRate > 180 {
		hrQuality *= 0.5
	}
	if data.HeartRate < 50 || data.HeartRate > 150 {
		hrQuality *= 0.8
	}
	hrQuality *= s.stability(func(d models.Sample) float64 { return d.HeartRate })

	spo2Quality := 1.0
	if data.SpO2 < 90 {
		spo2Quality *= 0.6
	}
	if data.SpO2 > 100 {
		spo2Quality *= 0.7
	}
	spo2Quality *= s.stability(func(d models.Sample) float64 { return d.SpO2 })

	tempQuality := 1.0
	if data.Temperature < 35 || data.Temperature > 39 {
		tempQuality *= 0.5
	}
	if data.Temperature < 36 || data.Temperature > 38 {
		tempQuality *= 0.9
	}
	tempQuality *= s.stability(func(d models.Sample) float64 { return d.Temperature })

	activityQuality := 1.0
	if data.Activity < 0 || data.Activity > 200 {
		activityQuality *= 0.5
	}
	activityQuality *= s.stability(func(d models.Sample) float64 { return d.Activity })

	m := models.QualityMetrics{
		HeartRateQuality:   clip(hrQuality, 0, 1),
		SpO2Quality:        clip(spo2Quality, 0, 1),
		TemperatureQuality: clip(tempQuality, 0, 1),
		ActivityQuality:    clip(activityQuality, 0, 1),
	}
	// 加权总分：心率 0.4、血氧 0.3、温度 0.2、活动量 0.1
	m.OverallQuality = m.HeartRateQuality*0.4 +
		m.SpO2Quality*0.3 +
		m.TemperatureQuality*0.2 +
		m.ActivityQuality*0.1
	return m
}

// stability 稳定性因子 = max(0.3, 1 - 变异系数)，对最近 10 条缓冲值计算
// 缓冲不足 5 条时按 0.9 处理（历史太短，先假定质量良好）
func (s *QualityStage) stability(pick func(models.Sample) float64) float64 {
	if s.history.Len() < 5 {
		return 0.9
	}
	recent := s.history.LastChannel(10, pick)
	cv := coefficientOfVariation(recent)
	if cv < 0 {
		return 0.5 // 均值为 0，无法评估
	}
	return clip(1.0-cv, 0.3, 1.0)
}

// applyNoiseReduction 总分低于阈值时做指数加权平滑
// 权重 = 归一化的 exp(linspace(-1,0,n))，越新的采样权重越大
// 窗口为最近 5 条历史值加当前值（当前值已入缓冲，即取缓冲尾部 6 条）
func (s *QualityStage) applyNoiseReduction(raw models.Sample, metrics models.QualityMetrics) (models.Sample, bool) {
	if metrics.OverallQuality >= qualityThreshold || s.history.Len() < 3 {
		return raw, false
	}

	smooth := func(pick func(models.Sample) float64) float64 {
		values := s.history.LastChannel(6, pick)
		weights := recencyWeights(len(values))
		var acc float64
		for i, v := range values {
			acc += v * weights[i]
		}
		return roundTo(acc, 2)
	}

	return models.Sample{
		HeartRate:   smooth(func(d models.Sample) float64 { return d.HeartRate }),
		SpO2:        smooth(func(d models.Sample) float64 { return d.SpO2 }),
		Temperature: smooth(func(d models.Sample) float64 { return d.Temperature }),
		Activity:    smooth(func(d models.Sample) float64 { return d.Activity }),
	}, true
}

// recencyWeights exp(linspace(-1,0,n)) 归一化
func recencyWeights(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	step := 1.0 / float64(n-1)
	var sum float64
	for i := range w {
		w[i] = math.Exp(-1 + float64(i)*step)
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// calculateSNR 信噪比（dB），裁剪到 [15,60]
// 噪声取原始值与处理值的差；历史不足 5 条时返回默认 35.0
func (s *QualityStage) calculateSNR(raw, processed models.Sample) float64 {
	if s.history.Len() < 5 {
		return 35.0
	}

	channels := [][2]float64{
		{raw.HeartRate, processed.HeartRate},
		{raw.SpO2, processed.SpO2},
		{raw.Temperature, processed.Temperature},
		{raw.Activity, processed.Activity},
	}

	var signalPowers, noisePowers []float64
	for _, ch := range channels {
		noise := math.Abs(ch[0] - ch[1])
		signal := math.Abs(ch[1])
		if signal > 0 {
			signalPowers = append(signalPowers, signal*signal)
			noisePowers = append(noisePowers, noise*noise)
		}
	}

	avgSignal := 1.0
	if len(signalPowers) > 0 {
		avgSignal = mean(signalPowers)
	}
	avgNoise := 0.01
	if len(noisePowers) > 0 {
		avgNoise = mean(noisePowers)
	}
	avgNoise = math.Max(avgNoise, 0.001)

	snr := 10 * math.Log10(avgSignal/avgNoise)
	return roundTo(clip(snr, 15, 60), 1)
}

// detectArtifacts 伪迹检测，所有命中的规则都会记录（非互斥）
func (s *QualityStage) detectArtifacts(data models.Sample, prev *models.Sample, metrics models.QualityMetrics) []string {
	artifacts := []string{}

	if data.SpO2 >= 100 || data.SpO2 <= 90 {
		artifacts = append(artifacts, "SpO2 saturation")
	}
	if data.HeartRate >= 180 || data.HeartRate <= 40 {
		artifacts = append(artifacts, "Heart rate extreme")
	}
	if data.Temperature >= 39 || data.Temperature <= 35 {
		artifacts = append(artifacts, "Temperature extreme")
	}
	if metrics.OverallQuality < 0.5 {
		artifacts = append(artifacts, "Poor sensor contact")
	}
	// 运动伪迹：高活动量且相对上一条采样突变
	if data.Activity > 100 && prev != nil && s.history.Len() > 2 {
		if math.Abs(data.Activity-prev.Activity) > 50 {
			artifacts = append(artifacts, "Motion artifact")
		}
	}

	return artifacts
}

// assessQuality 数值评分映射到等级，阈值 0.9/0.75/0.5（含上边界）
func assessQuality(score float64) models.SignalQuality {
	switch {
	case score >= 0.9:
		return models.QualityExcellent
	case score >= 0.75:
		return models.QualityGood
	case score >= 0.5:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}

func qualityNotes(score, snr float64, noiseReduced bool, artifacts []string) string {
	notes := []string{
		fmt.Sprintf("Quality Score: %.2f/1.00", score),
		fmt.Sprintf("SNR: %.1f dB", snr),
	}
	if noiseReduced {
		notes = append(notes, "Adaptive noise reduction applied")
	} else {
		notes = append(notes, "Signal quality acceptable, no filtering needed")
	}
	if len(artifacts) > 0 {
		notes = append(notes, "Artifacts detected: "+strings.Join(artifacts, ", "))
	} else {
		notes = append(notes, "No artifacts detected")
	}
	return strings.Join(notes, " | ")
}
