package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconnect-biosignal/internal/models"
)

func TestIdentifyCircadianPhase(t *testing.T) {
	tests := []struct {
		hour int
		want models.CircadianPhase
	}{
		{6, models.PhaseMorning},
		{11, models.PhaseMorning},
		{12, models.PhaseAfternoon},
		{17, models.PhaseAfternoon},
		{18, models.PhaseEvening},
		{21, models.PhaseEvening},
		{22, models.PhaseNight},
		{3, models.PhaseNight},
		{5, models.PhaseNight},
	}

	for _, tt := range tests {
		ts := time.Date(2026, 3, 15, tt.hour, 30, 0, 0, time.Local)
		assert.Equal(t, tt.want, identifyCircadianPhase(ts), "hour %d", tt.hour)
	}
}

func TestAssessCircadianAlignment(t *testing.T) {
	// 心率等于时段参考值：完全对齐
	a := assessCircadianAlignment(70, models.PhaseMorning)
	assert.Equal(t, 70.0, a.ExpectedHeartRate)
	assert.Equal(t, 1.0, a.AlignmentScore)
	assert.Equal(t, 0.0, a.PhaseShiftMinutes)

	// 偏差超过 20 bpm：得分裁剪到 0
	a = assessCircadianAlignment(90, models.PhaseNight)
	assert.Equal(t, 62.0, a.ExpectedHeartRate)
	assert.Equal(t, 0.0, a.AlignmentScore)
	assert.Equal(t, 56.0, a.PhaseShiftMinutes)
}

func TestTemporalStage_DefaultsWithLimitedHistory(t *testing.T) {
	stage := NewTemporalStage()

	result := stage.Process(time.Now(), models.Sample{HeartRate: 72, SpO2: 98, Temperature: 36.8})

	// 缓冲不足 20 条：模式按稳定处理
	assert.Equal(t, models.PatternStable, result.PatternType)
	assert.Equal(t, "Insufficient data", result.PatternRecognition.LongTermTrend)
	assert.Equal(t, 0.5, result.PatternRecognition.PatternConfidence)
	// 缓冲不足 10 条：一致性默认 0.75
	assert.Equal(t, 0.75, result.TemporalConsistency)
}

func TestTemporalStage_RisingTrend(t *testing.T) {
	stage := NewTemporalStage()
	base := time.Now()

	var result models.TemporalResult
	for i := 0; i < 40; i++ {
		s := models.Sample{HeartRate: 60 + 0.5*float64(i), SpO2: 98, Temperature: 36.8}
		result = stage.Process(base.Add(time.Duration(i)*100*time.Millisecond), s)
	}

	assert.Equal(t, models.PatternIncreasing, result.PatternType)
	assert.Equal(t, "Rising", result.PatternRecognition.ShortTermTrend)
	assert.Equal(t, "Rising", result.PatternRecognition.LongTermTrend)
}

func TestTemporalStage_PerfectConsistency(t *testing.T) {
	stage := NewTemporalStage()
	base := time.Now()

	var result models.TemporalResult
	for i := 0; i < 30; i++ {
		result = stage.Process(base.Add(time.Duration(i)*100*time.Millisecond), models.Sample{HeartRate: 72})
	}

	// 恒定心率：变异系数为 0，一致性为 1
	assert.Equal(t, 1.0, result.TemporalConsistency)
	assert.Equal(t, models.PatternStable, result.PatternType)
}

func TestTemporalStage_PeriodicityDetection(t *testing.T) {
	stage := NewTemporalStage()
	base := time.Now()

	// 10Hz 采样下周期 4 秒的正弦心率
	var result models.TemporalResult
	for i := 0; i < 120; i++ {
		hr := 70 + 8*math.Sin(2*math.Pi*float64(i)*0.1/4.0)
		result = stage.Process(base.Add(time.Duration(i)*100*time.Millisecond), models.Sample{HeartRate: hr})
	}

	require.True(t, result.PatternRecognition.PeriodicityDetected)
	require.NotNil(t, result.PatternRecognition.PeriodLengthSeconds)
	assert.InDelta(t, 4.0, *result.PatternRecognition.PeriodLengthSeconds, 0.3)
}

func TestTemporalStage_BufferCapacity(t *testing.T) {
	stage := NewTemporalStage()
	base := time.Now()

	for i := 0; i < 700; i++ {
		stage.Process(base.Add(time.Duration(i)*100*time.Millisecond), models.Sample{HeartRate: 70})
	}

	assert.Equal(t, temporalBufferSize, stage.BufferLen())
}

func TestTemporalStage_TimeOfDayAnalysis(t *testing.T) {
	stage := NewTemporalStage()
	ts := time.Date(2026, 3, 15, 2, 0, 0, 0, time.Local)

	// 夜间高活动量不符合节律预期
	result := stage.Process(ts, models.Sample{HeartRate: 80, Activity: 120, Temperature: 36.2})

	assert.Equal(t, models.PhaseNight, result.CircadianPhase)
	assert.Equal(t, 2, result.TimeOfDayAnalysis["current_hour"])
	assert.Equal(t, false, result.TimeOfDayAnalysis["activity_appropriate"])
	assert.Equal(t, "Normal circadian trough", result.TimeOfDayAnalysis["temperature_rhythm"])
	assert.Equal(t, 18.0, result.TimeOfDayAnalysis["heart_rate_deviation"])
}

func TestTemporalStage_RhythmScoreRange(t *testing.T) {
	stage := NewTemporalStage()
	base := time.Now()

	for i := 0; i < 60; i++ {
		hr := 65 + 20*math.Sin(float64(i)/3)
		result := stage.Process(base.Add(time.Duration(i)*100*time.Millisecond), models.Sample{HeartRate: hr})

		assert.GreaterOrEqual(t, result.RhythmScore, 0.0)
		assert.LessOrEqual(t, result.RhythmScore, 100.0)
	}
}
