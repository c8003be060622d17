package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"reconnect-biosignal/internal/models"
)

const (
	temporalBufferSize  = 600 // 60 秒 @ 10Hz
	patternWindowSize   = 100
	shortTrendWindow    = 30
	consistencyWindow   = 50
	periodicityMinGap   = 3.0 // 周期检测范围（秒）
	periodicityMaxGap   = 6.0
	periodicityMinCorr  = 0.5
)

// circadianReference 各时段的参考心率（bpm）
var circadianReference = map[models.CircadianPhase]float64{
	models.PhaseMorning:   70,
	models.PhaseAfternoon: 75,
	models.PhaseEvening:   72,
	models.PhaseNight:     62,
}

// TemporalStage 时域模式与昼夜节律分析层（流水线第三阶段）
type TemporalStage struct {
	buffer *sampleRing
}

func NewTemporalStage() *TemporalStage {
	return &TemporalStage{
		buffer: newSampleRing(temporalBufferSize),
	}
}

// BufferLen 缓冲长度（容量不变式测试用）
func (s *TemporalStage) BufferLen() int { return s.buffer.Len() }

// Process 处理一条频域层增强后的采样
func (s *TemporalStage) Process(now time.Time, data models.Sample) models.TemporalResult {
	s.buffer.Push(now, data)

	phase := identifyCircadianPhase(now)
	timeOfDay := s.analyzeTimeOfDay(data, now, phase)
	patternType := s.recognizePattern()
	patternRec := s.detailedPatternRecognition()
	consistency := s.temporalConsistency()
	alignment := assessCircadianAlignment(data.HeartRate, phase)
	rhythmScore := roundTo(consistency*40+alignment.AlignmentScore*35+patternRec.PatternConfidence*25, 1)

	// 同步处理当前为透传，保留给真实的时基校正
	synchronized := data

	notes := temporalNotes(patternType, phase, rhythmScore)

	return models.TemporalResult{
		SynchronizedData:    synchronized,
		PatternType:         patternType,
		TemporalConsistency: consistency,
		CircadianPhase:      phase,
		TimeOfDayAnalysis:   timeOfDay,
		PatternRecognition:  patternRec,
		CircadianAlignment:  alignment,
		RhythmScore:         rhythmScore,
		ProcessingNotes:     notes,
	}
}

// identifyCircadianPhase 按本地小时划分昼夜节律阶段
func identifyCircadianPhase(ts time.Time) models.CircadianPhase {
	hour := ts.Hour()
	switch {
	case hour >= 6 && hour < 12:
		return models.PhaseMorning
	case hour >= 12 && hour < 18:
		return models.PhaseAfternoon
	case hour >= 18 && hour < 22:
		return models.PhaseEvening
	default:
		return models.PhaseNight
	}
}

// analyzeTimeOfDay 时段上下文分析
func (s *TemporalStage) analyzeTimeOfDay(data models.Sample, ts time.Time, phase models.CircadianPhase) map[string]any {
	expected := circadianReference[phase]

	lo, hi := expectedHRRange(phase)

	return map[string]any{
		"current_hour":              ts.Hour(),
		"phase":                     string(phase),
		"expected_heart_rate_range": []float64{lo, hi},
		"heart_rate_deviation":      roundTo(data.HeartRate-expected, 1),
		"activity_appropriate":      isActivityAppropriate(data.Activity, phase),
		"temperature_rhythm":        assessTemperatureRhythm(data.Temperature, phase),
	}
}

func expectedHRRange(phase models.CircadianPhase) (float64, float64) {
	switch phase {
	case models.PhaseMorning, models.PhaseEvening:
		return 65, 80
	case models.PhaseAfternoon:
		return 70, 85
	case models.PhaseNight:
		return 55, 70
	}
	return 60, 80
}

func isActivityAppropriate(activity float64, phase models.CircadianPhase) bool {
	// 夜间高活动量不符合节律预期
	if phase == models.PhaseNight && activity > 50 {
		return false
	}
	return true
}

func assessTemperatureRhythm(temp float64, phase models.CircadianPhase) string {
	// 体温一般在午后达到峰值、凌晨最低
	switch {
	case phase == models.PhaseAfternoon && temp >= 37.0:
		return "Normal circadian peak"
	case phase == models.PhaseNight && temp <= 36.5:
		return "Normal circadian trough"
	case phase == models.PhaseMorning && temp < 36.7:
		return "Expected morning low"
	default:
		return "Within normal variation"
	}
}

// recognizePattern 整体模式分类
// 对最近 ≤100 条心率做一阶最小二乘拟合，按斜率与标准差分类
func (s *TemporalStage) recognizePattern() models.PatternType {
	if s.buffer.Len() < 20 {
		return models.PatternStable
	}

	hrValues := s.buffer.LastChannel(patternWindowSize, pickHeartRate)
	slope := linearSlope(hrValues)
	std := stddev(hrValues)

	switch {
	case math.Abs(slope) < 0.05 && std < 5:
		return models.PatternStable
	case slope > 0.15:
		return models.PatternIncreasing
	case slope < -0.15:
		return models.PatternDecreasing
	case std > 10:
		return models.PatternIrregular
	default:
		return models.PatternOscillating
	}
}

// detailedPatternRecognition 短期/长期趋势 + 周期性检测 + 置信度
func (s *TemporalStage) detailedPatternRecognition() models.PatternRecognition {
	if s.buffer.Len() < 20 {
		return models.PatternRecognition{
			ShortTermTrend:    "Stable",
			LongTermTrend:     "Insufficient data",
			PatternConfidence: 0.5,
		}
	}

	shortTerm := s.buffer.LastChannel(shortTrendWindow, pickHeartRate)
	longTerm := s.buffer.LastChannel(s.buffer.Len(), pickHeartRate)

	detected, period := s.detectPeriodicity(longTerm)

	return models.PatternRecognition{
		ShortTermTrend:      trendDescription(shortTerm),
		LongTermTrend:       trendDescription(longTerm),
		PeriodicityDetected: detected,
		PeriodLengthSeconds: period,
		PatternConfidence:   patternConfidence(longTerm),
	}
}

// trendDescription 斜率阈值 ±0.2 映射为趋势描述
func trendDescription(values []float64) string {
	slope := linearSlope(values)
	switch {
	case slope > 0.2:
		return "Rising"
	case slope < -0.2:
		return "Declining"
	default:
		return "Stable"
	}
}

// detectPeriodicity 自相关周期检测
// 在 3-6 秒对应的滞后范围内找归一化自相关峰值，超过阈值即认为存在周期
func (s *TemporalStage) detectPeriodicity(values []float64) (bool, *float64) {
	if len(values) < 50 {
		return false, nil
	}

	dt := s.sampleInterval()
	minLag := int(math.Ceil(periodicityMinGap / dt))
	maxLag := int(math.Floor(periodicityMaxGap / dt))
	if maxLag > len(values)/2 {
		maxLag = len(values) / 2
	}
	if minLag < 1 || minLag > maxLag {
		return false, nil
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		if corr := autocorrelation(values, lag); corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestCorr < periodicityMinCorr {
		return false, nil
	}
	period := roundTo(float64(bestLag)*dt, 1)
	return true, &period
}

// sampleInterval 根据缓冲时间戳估算采样周期（秒），退化时按 10Hz 处理
func (s *TemporalStage) sampleInterval() float64 {
	all := s.buffer.All()
	n := len(all)
	if n < 2 {
		return 0.1
	}
	span := all[n-1].Timestamp.Sub(all[0].Timestamp).Seconds()
	if span <= 0 {
		return 0.1
	}
	return span / float64(n-1)
}

// patternConfidence 数据量项与一致性项的均值
func patternConfidence(values []float64) float64 {
	if len(values) < 10 {
		return 0.3
	}
	dataConfidence := math.Min(1.0, float64(len(values))/100)
	normalizedStd := stddev(values) / math.Max(mean(values), 1)
	consistency := math.Max(0.3, 1.0-normalizedStd)
	return roundTo((dataConfidence+consistency)/2, 2)
}

// temporalConsistency clip(1 - 2*CV(最近 50 条心率), 0.3, 1.0)
// 缓冲不足 10 条时默认 0.75
func (s *TemporalStage) temporalConsistency() float64 {
	if s.buffer.Len() < 10 {
		return 0.75
	}
	hrValues := s.buffer.LastChannel(consistencyWindow, pickHeartRate)
	cv := coefficientOfVariation(hrValues)
	if cv < 0 {
		return 0.5
	}
	return roundTo(clip(1.0-cv*2, 0.3, 1.0), 2)
}

// assessCircadianAlignment 当前心率与时段参考值的对齐程度
func assessCircadianAlignment(heartRate float64, phase models.CircadianPhase) models.CircadianAlignment {
	expected := circadianReference[phase]
	score := clip(1.0-math.Abs(heartRate-expected)/20, 0, 1)

	return models.CircadianAlignment{
		ExpectedHeartRate: expected,
		ActualHeartRate:   heartRate,
		AlignmentScore:    roundTo(score, 2),
		PhaseShiftMinutes: roundTo((heartRate-expected)*2, 1),
	}
}

func pickHeartRate(d models.Sample) float64 { return d.HeartRate }

func temporalNotes(pattern models.PatternType, phase models.CircadianPhase, rhythmScore float64) string {
	return strings.Join([]string{
		fmt.Sprintf("Pattern: %s", pattern),
		fmt.Sprintf("Circadian Phase: %s", phase),
		fmt.Sprintf("Rhythm Score: %.1f/100", rhythmScore),
		"Temporal window: 60s",
	}, " | ")
}
