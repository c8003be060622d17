package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconnect-biosignal/internal/models"
)

func TestSpectralStage_DefaultsWithLimitedHistory(t *testing.T) {
	stage := NewSpectralStage()

	result := stage.Process(models.Sample{HeartRate: 72, SpO2: 98, Temperature: 36.8, Activity: 20})

	// 心率缓冲不足 32 条：主频与稳定性取默认值
	assert.Equal(t, 1.25, result.DominantFrequency)
	assert.Equal(t, 0.85, result.FrequencyStability)
	// RR 不足 10 条：频带取默认值
	assert.Equal(t, 45.0, result.FrequencyBands.VLF)
	assert.Equal(t, 35.0, result.FrequencyBands.LF)
	assert.Equal(t, 20.0, result.FrequencyBands.HF)
	assert.Equal(t, 1.75, result.FrequencyBands.LFHFRatio)
	// RR 不足 5 条：HRV 取默认值
	assert.Equal(t, 75.0, result.HRVFeatures.HRVScore)
}

func TestSpectralStage_RRIntervalDerivation(t *testing.T) {
	stage := NewSpectralStage()

	stage.Process(models.Sample{HeartRate: 60})
	assert.Equal(t, 1, stage.RRBufferLen())

	// 心率为 0 时 RR 间期无定义，不入缓冲
	stage.Process(models.Sample{HeartRate: 0})
	assert.Equal(t, 1, stage.RRBufferLen())
	assert.Equal(t, 2, stage.HRBufferLen())
}

func TestSpectralStage_HRVFeatures(t *testing.T) {
	stage := NewSpectralStage()

	// 交替 60/75 bpm → RR 交替 1000/800 ms
	var result models.SpectralResult
	rates := []float64{60, 75, 60, 75, 60, 75}
	for _, hr := range rates {
		result = stage.Process(models.Sample{HeartRate: hr, SpO2: 98, Temperature: 36.8})
	}

	// mean=900，偏差 ±100 → SDNN=100；相邻差值 ±200 → RMSSD=200、pNN50=100%
	assert.Equal(t, 100.0, result.HRVFeatures.SDNN)
	assert.Equal(t, 200.0, result.HRVFeatures.RMSSD)
	assert.Equal(t, 100.0, result.HRVFeatures.PNN50)
	assert.Equal(t, 100.0, result.HRVFeatures.HRVScore)
}

func TestSpectralStage_FrequencyBandsSumTo100(t *testing.T) {
	stage := NewSpectralStage()

	// 缓慢变化的心率序列，保证 RR 序列有低频能量
	var result models.SpectralResult
	for i := 0; i < 60; i++ {
		hr := 70 + 8*math.Sin(2*math.Pi*float64(i)/30) + 3*math.Sin(2*math.Pi*float64(i)/7)
		result = stage.Process(models.Sample{HeartRate: hr, SpO2: 98, Temperature: 36.8})
	}

	sum := result.FrequencyBands.VLF + result.FrequencyBands.LF + result.FrequencyBands.HF
	assert.InDelta(t, 100.0, sum, 0.2)
	assert.GreaterOrEqual(t, result.FrequencyBands.LFHFRatio, 0.0)
}

func TestSpectralStage_DominantFrequency(t *testing.T) {
	stage := NewSpectralStage()

	var result models.SpectralResult
	for i := 0; i < 128; i++ {
		// 128 点窗口内周期 16 → 归一化频率 8/128，对应 fs=100 时 6.25 Hz
		hr := 75 + 10*math.Sin(2*math.Pi*float64(i)/16)
		result = stage.Process(models.Sample{HeartRate: hr})
	}

	require.GreaterOrEqual(t, stage.HRBufferLen(), 32)
	assert.InDelta(t, 6.25, result.DominantFrequency, 0.85)
	assert.GreaterOrEqual(t, result.FrequencyStability, 0.3)
	assert.LessOrEqual(t, result.FrequencyStability, 1.0)
}

func TestSpectralStage_BufferCapacities(t *testing.T) {
	stage := NewSpectralStage()

	for i := 0; i < 400; i++ {
		stage.Process(models.Sample{HeartRate: 70})
	}

	assert.Equal(t, spectralBufferSize, stage.HRBufferLen())
	assert.Equal(t, rrBufferSize, stage.RRBufferLen())
}

func TestClassifyRhythm_Cascade(t *testing.T) {
	bands := models.FrequencyBands{LFHFRatio: 1.5}

	tests := []struct {
		name     string
		hr       float64
		hrvScore float64
		ratio    float64
		want     models.RhythmClassification
	}{
		{"normal sinus", 75, 70, 1.5, models.RhythmNormalSinus},
		{"athletic", 52, 80, 1.5, models.RhythmAthletic},
		{"elevated", 120, 50, 1.5, models.RhythmElevated},
		{"low without high hrv", 52, 50, 1.5, models.RhythmLow},
		{"irregular by hrv", 75, 30, 1.5, models.RhythmIrregular},
		{"irregular by ratio", 75, 50, 3.5, models.RhythmIrregular},
		{"fallback normal sinus", 75, 50, 1.5, models.RhythmNormalSinus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bands
			b.LFHFRatio = tt.ratio
			got := classifyRhythm(tt.hr, models.HRVFeatures{HRVScore: tt.hrvScore}, b)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateRespiratoryRate(t *testing.T) {
	// HF=25 → 基准 16 次/分钟
	assert.Equal(t, 16.0, estimateRespiratoryRate(models.FrequencyBands{HF: 25}))
	// 裁剪到 [10,25]
	assert.Equal(t, 10.0, estimateRespiratoryRate(models.FrequencyBands{HF: -100}))
	assert.Equal(t, 25.0, estimateRespiratoryRate(models.FrequencyBands{HF: 200}))
}

func TestSpectralStage_Enhancement(t *testing.T) {
	stage := NewSpectralStage()

	stage.Process(models.Sample{HeartRate: 60})
	stage.Process(models.Sample{HeartRate: 70})
	result := stage.Process(models.Sample{HeartRate: 80, SpO2: 98, Temperature: 36.8, Activity: 15})

	// 心率替换为最近 3 条均值，其余通道透传
	assert.Equal(t, 70.0, result.EnhancedData.HeartRate)
	assert.Equal(t, 98.0, result.EnhancedData.SpO2)
	assert.Equal(t, 15.0, result.EnhancedData.Activity)
}
