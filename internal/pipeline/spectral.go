package pipeline

import (
	"fmt"
	"math"
	"strings"

	"reconnect-biosignal/internal/models"
)

const (
	spectralBufferSize = 256 // 心率环形缓冲
	rrBufferSize       = 100 // RR 间期序列
	spectralWindowSize = 128 // DFT 分析窗口
	spectralSampleRate = 100.0
	hrvWindowSize      = 50
)

// SpectralStage 频域与 HRV 分析层（流水线第二阶段）
//
// 基于质量层输出的心率序列维护两个缓冲：
// - 心率环形缓冲（≤256），用于 DFT 主频分析与信号增强
// - RR 间期序列（≤100，60000/HR ms），用于频带功率与 HRV 特征
type SpectralStage struct {
	hrBuffer    *floatRing
	rrIntervals *floatRing
}

func NewSpectralStage() *SpectralStage {
	return &SpectralStage{
		hrBuffer:    newFloatRing(spectralBufferSize),
		rrIntervals: newFloatRing(rrBufferSize),
	}
}

// HRBufferLen 心率缓冲长度（容量不变式测试用）
func (s *SpectralStage) HRBufferLen() int { return s.hrBuffer.Len() }

// RRBufferLen RR 序列长度
func (s *SpectralStage) RRBufferLen() int { return s.rrIntervals.Len() }

// Process 处理一条质量层增强后的采样
func (s *SpectralStage) Process(data models.Sample) models.SpectralResult {
	s.hrBuffer.Push(data.HeartRate)
	// RR 间期只在心率为正时有定义
	if data.HeartRate > 0 {
		s.rrIntervals.Push(60000.0 / data.HeartRate)
	}

	dominantFreq, stability := s.analyzeFrequency()
	bands := s.calculateFrequencyBands()
	hrv := s.extractHRVFeatures()
	rhythm := classifyRhythm(data.HeartRate, hrv, bands)
	respiratoryRate := estimateRespiratoryRate(bands)
	enhanced := s.enhanceSignals(data)
	notes := spectralNotes(dominantFreq, rhythm, hrv)

	return models.SpectralResult{
		EnhancedData:       enhanced,
		DominantFrequency:  dominantFreq,
		FrequencyBands:     bands,
		HRVFeatures:        hrv,
		Rhythm:             rhythm,
		RespiratoryRate:    respiratoryRate,
		FrequencyStability: stability,
		ProcessingNotes:    notes,
	}
}

// analyzeFrequency 去均值 + Hann 窗 + DFT，取非直流最强 bin 为主频
// 稳定性 = 主 bin 功率占总功率之比，裁剪到 [0.3,1.0]
// 缓冲不足 32 条时返回默认 (1.25 Hz, 0.85)
func (s *SpectralStage) analyzeFrequency() (float64, float64) {
	if s.hrBuffer.Len() < 32 {
		return 1.25, 0.85
	}

	window := s.hrBuffer.Last(spectralWindowSize)
	n := len(window)

	signal := make([]float64, n)
	m := mean(window)
	hann := hannWindow(n)
	for i, v := range window {
		signal[i] = (v - m) * hann[i]
	}

	mags := dftMagnitude(signal)
	if len(mags) <= 1 {
		return 1.25, 0.85
	}

	dominantIdx := 1
	for k := 2; k < len(mags); k++ {
		if mags[k] > mags[dominantIdx] {
			dominantIdx = k
		}
	}
	dominantFreq := float64(dominantIdx) * spectralSampleRate / float64(n)

	var totalPower float64
	for _, mag := range mags {
		totalPower += mag * mag
	}
	stability := 0.5
	if totalPower > 0 {
		stability = mags[dominantIdx] * mags[dominantIdx] / totalPower
	}
	stability = clip(stability, 0.3, 1.0)

	return roundTo(dominantFreq, 2), roundTo(stability, 2)
}

// calculateFrequencyBands RR 序列周期图的 VLF/LF/HF 功率占比
// RR 不足 10 条时返回固定默认值（45/35/20，ratio 1.75）
func (s *SpectralStage) calculateFrequencyBands() models.FrequencyBands {
	if s.rrIntervals.Len() < 10 {
		return models.FrequencyBands{VLF: 45.0, LF: 35.0, HF: 20.0, LFHFRatio: 1.75}
	}

	vlf, lf, hf := bandPowers(s.rrIntervals.All())
	total := vlf + lf + hf
	if total <= 0 {
		// 序列近似常数，频带功率退化
		return models.FrequencyBands{VLF: 45.0, LF: 35.0, HF: 20.0, LFHFRatio: 1.75}
	}

	ratio := 1.5
	if hf > 0 {
		ratio = lf / hf
	}

	return models.FrequencyBands{
		VLF:       roundTo(vlf/total*100, 1),
		LF:        roundTo(lf/total*100, 1),
		HF:        roundTo(hf/total*100, 1),
		LFHFRatio: roundTo(ratio, 2),
	}
}

// extractHRVFeatures 最近 ≤50 条 RR 间期的时域 HRV 特征
// RR 不足 5 条时返回默认 (42/65/25/75)
func (s *SpectralStage) extractHRVFeatures() models.HRVFeatures {
	if s.rrIntervals.Len() < 5 {
		return models.HRVFeatures{RMSSD: 42.0, SDNN: 65.0, PNN50: 25.0, HRVScore: 75.0}
	}

	rr := s.rrIntervals.Last(hrvWindowSize)
	sdnn := stddev(rr)

	var sumSq float64
	nn50 := 0
	diffs := len(rr) - 1
	for i := 1; i < len(rr); i++ {
		d := rr[i] - rr[i-1]
		sumSq += d * d
		if math.Abs(d) > 50 {
			nn50++
		}
	}
	rmssd := math.Sqrt(sumSq / float64(diffs))
	pnn50 := float64(nn50) / float64(diffs) * 100

	hrvScore := math.Min(100, rmssd/2+sdnn/2)

	return models.HRVFeatures{
		RMSSD:    roundTo(rmssd, 1),
		SDNN:     roundTo(sdnn, 1),
		PNN50:    roundTo(pnn50, 1),
		HRVScore: roundTo(hrvScore, 1),
	}
}

// classifyRhythm 心律级联分类，自上而下首个命中生效
func classifyRhythm(heartRate float64, hrv models.HRVFeatures, bands models.FrequencyBands) models.RhythmClassification {
	switch {
	case heartRate >= 60 && heartRate <= 100 && hrv.HRVScore >= 60:
		return models.RhythmNormalSinus
	case heartRate < 60 && hrv.HRVScore >= 70:
		return models.RhythmAthletic
	case heartRate > 100:
		return models.RhythmElevated
	case heartRate < 60:
		return models.RhythmLow
	case hrv.HRVScore < 40 || bands.LFHFRatio > 3.0:
		return models.RhythmIrregular
	default:
		return models.RhythmNormalSinus
	}
}

// estimateRespiratoryRate HF 频带（呼吸性窦性心律不齐）推算呼吸率
func estimateRespiratoryRate(bands models.FrequencyBands) float64 {
	rate := 16.0 + (bands.HF-25)*0.1
	return roundTo(clip(rate, 10, 25), 1)
}

// enhanceSignals 频域增强：心率替换为最近 3 条缓冲值的均值，其余通道透传
func (s *SpectralStage) enhanceSignals(data models.Sample) models.Sample {
	enhanced := data
	if s.hrBuffer.Len() >= 3 {
		enhanced.HeartRate = roundTo(mean(s.hrBuffer.Last(3)), 2)
	}
	return enhanced
}

func spectralNotes(dominantFreq float64, rhythm models.RhythmClassification, hrv models.HRVFeatures) string {
	return strings.Join([]string{
		fmt.Sprintf("Dominant frequency: %.2f Hz", dominantFreq),
		fmt.Sprintf("Rhythm: %s", rhythm),
		fmt.Sprintf("HRV Score: %.1f/100", hrv.HRVScore),
		fmt.Sprintf("RMSSD: %.1fms, SDNN: %.1fms", hrv.RMSSD, hrv.SDNN),
		"DFT analysis completed with Hann window",
	}, " | ")
}
