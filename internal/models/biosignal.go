package models

import "time"

// SignalQuality 信号质量等级
type SignalQuality string

const (
	QualityExcellent SignalQuality = "excellent"
	QualityGood      SignalQuality = "good"
	QualityFair      SignalQuality = "fair"
	QualityPoor      SignalQuality = "poor"
)

// PatternType 时域模式类型
type PatternType string

const (
	PatternStable      PatternType = "stable"
	PatternIncreasing  PatternType = "increasing"
	PatternDecreasing  PatternType = "decreasing"
	PatternOscillating PatternType = "oscillating"
	PatternIrregular   PatternType = "irregular"
)

// CircadianPhase 昼夜节律阶段（按本地时刻划分的四个时段）
type CircadianPhase string

const (
	PhaseMorning   CircadianPhase = "morning"   // 06:00 - 12:00
	PhaseAfternoon CircadianPhase = "afternoon" // 12:00 - 18:00
	PhaseEvening   CircadianPhase = "evening"   // 18:00 - 22:00
	PhaseNight     CircadianPhase = "night"     // 22:00 - 06:00
)

// RhythmClassification 心律分类
type RhythmClassification string

const (
	RhythmNormalSinus RhythmClassification = "normal_sinus"
	RhythmElevated    RhythmClassification = "elevated"
	RhythmLow         RhythmClassification = "low"
	RhythmIrregular   RhythmClassification = "irregular"
	RhythmAthletic    RhythmClassification = "athletic"
)

// Sample 单次生理采样（值类型，贯穿整条流水线）
// 所有字段均为有限浮点数，由采集端保证
type Sample struct {
	HeartRate   float64 `json:"heart_rate"`  // 心率（bpm）
	SpO2        float64 `json:"spo2"`        // 血氧饱和度（%）
	Temperature float64 `json:"temperature"` // 皮肤温度（°C）
	Activity    float64 `json:"activity"`    // 活动量（count/min）
}

// QualityMetrics 各通道质量评分 + 加权总分，均在 [0,1]
type QualityMetrics struct {
	HeartRateQuality   float64 `json:"heart_rate_quality"`
	SpO2Quality        float64 `json:"spo2_quality"`
	TemperatureQuality float64 `json:"temperature_quality"`
	ActivityQuality    float64 `json:"activity_quality"`
	OverallQuality     float64 `json:"overall_quality"`
}

// FrequencyBands HRV 频带功率占比（vlf+lf+hf = 100）
type FrequencyBands struct {
	VLF       float64 `json:"vlf"`          // 0.003-0.04 Hz
	LF        float64 `json:"lf"`           // 0.04-0.15 Hz
	HF        float64 `json:"hf"`           // 0.15-0.4 Hz
	LFHFRatio float64 `json:"lf_hf_ratio"`  // 自主神经平衡指标
}

// HRVFeatures 时域 HRV 特征
type HRVFeatures struct {
	RMSSD    float64 `json:"rmssd"`     // 相邻 RR 差值均方根（ms）
	SDNN     float64 `json:"sdnn"`      // RR 间期标准差（ms）
	PNN50    float64 `json:"pnn50"`     // 相邻差值 >50ms 的占比（%）
	HRVScore float64 `json:"hrv_score"` // 综合评分 0-100
}

// PatternRecognition 模式识别结果
type PatternRecognition struct {
	ShortTermTrend      string   `json:"short_term_trend"` // Rising / Declining / Stable
	LongTermTrend       string   `json:"long_term_trend"`
	PeriodicityDetected bool     `json:"periodicity_detected"`
	PeriodLengthSeconds *float64 `json:"period_length_seconds"` // 检测到周期时为 3-6s
	PatternConfidence   float64  `json:"pattern_confidence"`    // [0,1]
}

// CircadianAlignment 昼夜节律对齐评估
type CircadianAlignment struct {
	ExpectedHeartRate float64 `json:"expected_heart_rate"`
	ActualHeartRate   float64 `json:"actual_heart_rate"`
	AlignmentScore    float64 `json:"alignment_score"`     // [0,1]
	PhaseShiftMinutes float64 `json:"phase_shift_minutes"` // 有符号，分钟
}

// WellnessAssessment 多维健康评估，各项均在 [0,100]
type WellnessAssessment struct {
	CardiovascularHealth float64 `json:"cardiovascular_health"`
	RespiratoryHealth    float64 `json:"respiratory_health"`
	ActivityLevel        float64 `json:"activity_level"`
	StressLevel          float64 `json:"stress_level"`
	OverallWellness      float64 `json:"overall_wellness"`
}

// QualityResult 质量层（第一阶段）输出
type QualityResult struct {
	ProcessedData     Sample         `json:"processed_data"`
	QualityScore      float64        `json:"quality_score"`
	SignalToNoise     float64        `json:"signal_to_noise_ratio"` // dB，[15,60]
	NoiseReduced      bool           `json:"noise_reduction_applied"`
	QualityMetrics    QualityMetrics `json:"quality_metrics"`
	QualityAssessment SignalQuality  `json:"quality_assessment"`
	Artifacts         []string       `json:"artifacts_detected"`
	ProcessingNotes   string         `json:"processing_notes"`
}

// SpectralResult 频域层（第二阶段）输出
type SpectralResult struct {
	EnhancedData       Sample               `json:"enhanced_data"`
	DominantFrequency  float64              `json:"dominant_frequency"` // Hz
	FrequencyBands     FrequencyBands       `json:"frequency_bands"`
	HRVFeatures        HRVFeatures          `json:"hrv_features"`
	Rhythm             RhythmClassification `json:"rhythm_classification"`
	RespiratoryRate    float64              `json:"respiratory_rate"` // 次/分钟
	FrequencyStability float64              `json:"frequency_stability"`
	ProcessingNotes    string               `json:"processing_notes"`
}

// TemporalResult 时域层（第三阶段）输出
type TemporalResult struct {
	SynchronizedData    Sample             `json:"synchronized_data"`
	PatternType         PatternType        `json:"pattern_type"`
	TemporalConsistency float64            `json:"temporal_consistency"`
	CircadianPhase      CircadianPhase     `json:"circadian_phase"`
	TimeOfDayAnalysis   map[string]any     `json:"time_of_day_analysis"`
	PatternRecognition  PatternRecognition `json:"pattern_recognition"`
	CircadianAlignment  CircadianAlignment `json:"circadian_alignment"`
	RhythmScore         float64            `json:"rhythm_score"` // [0,100]
	ProcessingNotes     string             `json:"processing_notes"`
}

// InsightResult 综合洞察层（第四阶段）输出
type InsightResult struct {
	Condition          string             `json:"condition"`
	Confidence         float64            `json:"confidence"` // [0.70,0.99]
	WellnessScore      float64            `json:"wellness_score"`
	Probabilities      map[string]float64 `json:"probabilities"` // 10 个条件标签，和为 1
	Recommendation     string             `json:"recommendation"`
	WellnessAssessment WellnessAssessment `json:"wellness_assessment"`
	RiskFactors        []string           `json:"risk_factors"`
	PositiveIndicators []string           `json:"positive_indicators"`
}

// StreamResult 单次采样经过完整流水线的结果包
type StreamResult struct {
	Timestamp      time.Time      `json:"timestamp"`
	RawSignals     Sample         `json:"raw_signals"`
	QualityLayer   QualityResult  `json:"quality_layer"`
	SpectralLayer  SpectralResult `json:"spectral_layer"`
	TemporalLayer  TemporalResult `json:"temporal_layer"`
	InsightLayer   InsightResult  `json:"insight_layer"`
}

// PredictionResult /predict 接口的精简视图
type PredictionResult struct {
	Timestamp      time.Time          `json:"timestamp"`
	Condition      string             `json:"condition"`
	Confidence     float64            `json:"confidence"`
	WellnessScore  float64            `json:"wellness_score"`
	Probabilities  map[string]float64 `json:"probabilities"`
	SignalQuality  SignalQuality      `json:"signal_quality"`
	Recommendation string             `json:"recommendation"`
	Metrics        map[string]float64 `json:"metrics"`
}

// DeviceStatus 采集设备状态
type DeviceStatus struct {
	DeviceID        string    `json:"device_id"`
	IsConnected     bool      `json:"is_connected"`
	BatteryLevel    float64   `json:"battery_level"`
	SignalStrength  int       `json:"signal_strength"` // RSSI dBm
	FirmwareVersion string    `json:"firmware_version"`
	LastUpdated     time.Time `json:"last_updated"`
}

// SystemStatus 健康检查响应
type SystemStatus struct {
	Status           string          `json:"status"`
	Timestamp        time.Time       `json:"timestamp"`
	Services         map[string]bool `json:"services"`
	ConnectedClients int             `json:"connected_clients"`
	ActiveSessions   int             `json:"active_sessions"`
}
