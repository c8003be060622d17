package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconnect-biosignal/internal/models"
)

func TestClassifyCondition_Cascade(t *testing.T) {
	tests := []struct {
		name string
		in   conditionInputs
		want string
	}{
		{"sleep state", conditionInputs{HeartRate: 55, Activity: 0, SpO2: 97, HRVScore: 65, Pattern: models.PatternStable}, "Sleep State"},
		{"deep rest", conditionInputs{HeartRate: 62, Activity: 5, SpO2: 98, HRVScore: 80, Pattern: models.PatternOscillating}, "Deep Rest"},
		{"intense exercise", conditionInputs{HeartRate: 145, Activity: 110, SpO2: 96, HRVScore: 40}, "Intense Exercise"},
		{"moderate exercise", conditionInputs{HeartRate: 120, Activity: 70, SpO2: 97, HRVScore: 50}, "Moderate Exercise"},
		{"light activity", conditionInputs{HeartRate: 100, Activity: 40, SpO2: 98, HRVScore: 55}, "Light Activity"},
		{"elevated stress", conditionInputs{HeartRate: 90, Activity: 10, SpO2: 97, HRVScore: 40}, "Elevated Stress"},
		{"relaxation", conditionInputs{HeartRate: 68, Activity: 10, SpO2: 98, HRVScore: 80}, "Relaxation"},
		{"recovery mode", conditionInputs{HeartRate: 80, Activity: 25, SpO2: 97, HRVScore: 85, Rhythm: models.RhythmAthletic}, "Recovery Mode"},
		{"optimal wellness", conditionInputs{HeartRate: 70, Activity: 30, SpO2: 99, HRVScore: 80}, "Optimal Wellness"},
		{"fallback normal resting", conditionInputs{HeartRate: 80, Activity: 15, SpO2: 97, HRVScore: 60}, "Normal Resting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyCondition(tt.in))
			// 相同输入重复分类结果不变
			assert.Equal(t, tt.want, classifyCondition(tt.in))
		})
	}
}

func TestCalculateConfidence_Bounds(t *testing.T) {
	// 上界裁剪到 0.99
	assert.Equal(t, 0.99, calculateConfidence(1.0, 60, 1.0))
	// 下界裁剪到 0.70
	assert.Equal(t, 0.70, calculateConfidence(0, 15, 0))
	// 中间值按权重线性组合：0.4*0.8 + 0.3*0.5 + 0.3*0.8
	assert.Equal(t, 0.71, calculateConfidence(0.8, 35, 0.8))
}

func TestGenerateProbabilities(t *testing.T) {
	stage := NewInsightStage(rand.New(rand.NewSource(42)))

	probs := stage.generateProbabilities("Sleep State")

	require.Len(t, probs, len(Conditions))
	var sum float64
	for _, c := range Conditions {
		p, ok := probs[c]
		require.True(t, ok, "missing condition %s", c)
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// 检出状态的浓度参数为 10，其余为 1，检出项应明显占优
	assert.Greater(t, probs["Sleep State"], 0.1)
}

func TestInsightStage_Analyze(t *testing.T) {
	stage := NewInsightStage(rand.New(rand.NewSource(7)))

	raw := models.Sample{HeartRate: 70, SpO2: 99, Temperature: 36.8, Activity: 30}
	quality := models.QualityResult{
		ProcessedData: raw,
		QualityScore:  0.92,
		SignalToNoise: 40,
	}
	spectral := models.SpectralResult{
		EnhancedData: raw,
		HRVFeatures:  models.HRVFeatures{SDNN: 60, RMSSD: 55, PNN50: 40, HRVScore: 80},
		Rhythm:       models.RhythmNormalSinus,
	}
	temporal := models.TemporalResult{
		PatternType:         models.PatternStable,
		TemporalConsistency: 0.9,
		CircadianPhase:      models.PhaseMorning,
		CircadianAlignment:  models.CircadianAlignment{ExpectedHeartRate: 70, ActualHeartRate: 70, AlignmentScore: 1.0},
	}

	result := stage.Analyze(raw, quality, spectral, temporal)

	assert.Equal(t, "Optimal Wellness", result.Condition)
	assert.GreaterOrEqual(t, result.Confidence, 0.70)
	assert.LessOrEqual(t, result.Confidence, 0.99)
	assert.GreaterOrEqual(t, result.WellnessScore, 0.0)
	assert.LessOrEqual(t, result.WellnessScore, 100.0)
	assert.Contains(t, result.Recommendation, "Excellent health indicators")
	assert.Contains(t, result.PositiveIndicators, "Excellent heart rate variability")
	assert.Contains(t, result.PositiveIndicators, "Optimal blood oxygen saturation")
	assert.Empty(t, result.RiskFactors)
	assert.Equal(t, 1, stage.HistoryLen())
}

func TestInsightStage_HistoryCapacity(t *testing.T) {
	stage := NewInsightStage(rand.New(rand.NewSource(1)))

	raw := models.Sample{HeartRate: 75, SpO2: 98, Temperature: 36.8, Activity: 15}
	for i := 0; i < 150; i++ {
		stage.Analyze(raw, models.QualityResult{QualityScore: 0.9, SignalToNoise: 35},
			models.SpectralResult{HRVFeatures: models.HRVFeatures{HRVScore: 60}},
			models.TemporalResult{TemporalConsistency: 0.8})
	}

	assert.Equal(t, conditionHistorySize, stage.HistoryLen())
}

func TestIdentifyRiskFactors(t *testing.T) {
	risks := identifyRiskFactors(
		models.Sample{HeartRate: 110, SpO2: 93, Temperature: 38.5},
		models.HRVFeatures{HRVScore: 40},
		models.QualityResult{QualityScore: 0.5, Artifacts: []string{"a", "b", "c"}},
		models.CircadianAlignment{AlignmentScore: 0.4},
	)

	assert.Contains(t, risks, "Elevated heart rate")
	assert.Contains(t, risks, "Low heart rate variability")
	assert.Contains(t, risks, "Low blood oxygen saturation")
	assert.Contains(t, risks, "Elevated body temperature")
	assert.Contains(t, risks, "Poor signal quality - check sensor placement")
	assert.Contains(t, risks, "Circadian rhythm misalignment")
	assert.Contains(t, risks, "Multiple signal artifacts detected")
}

func TestGenerateRecommendation_Suffixes(t *testing.T) {
	rec := generateRecommendation("Normal Resting", 50, []string{
		"Low heart rate variability",
		"Low blood oxygen saturation",
		"Circadian rhythm misalignment",
	})

	assert.Contains(t, rec, "Maintain current activity levels")
	assert.Contains(t, rec, "Consider relaxation exercises to improve HRV")
	assert.Contains(t, rec, "Deep breathing exercises recommended")
	assert.Contains(t, rec, "Try to maintain consistent sleep schedule")
	assert.Contains(t, rec, "Consult healthcare provider if symptoms persist")

	// 高健康分走正向后缀
	rec = generateRecommendation("Relaxation", 90, nil)
	assert.Contains(t, rec, "Great health status - keep it up!")

	// 未知状态回落到通用文案
	rec = generateRecommendation("Unknown", 70, nil)
	assert.Contains(t, rec, "Continue monitoring health metrics")
}

func TestAssessWellness_Ranges(t *testing.T) {
	stage := NewInsightStage(rand.New(rand.NewSource(3)))

	samples := []models.Sample{
		{HeartRate: 70, SpO2: 99, Temperature: 36.8, Activity: 40},
		{HeartRate: 150, SpO2: 90, Temperature: 39, Activity: 180},
		{HeartRate: 45, SpO2: 94, Temperature: 35.5, Activity: 0},
	}

	for _, s := range samples {
		a := stage.assessWellness(s, models.HRVFeatures{HRVScore: 55},
			models.CircadianAlignment{AlignmentScore: 0.8}, 0.7)

		for _, v := range []float64{
			a.CardiovascularHealth, a.RespiratoryHealth,
			a.ActivityLevel, a.StressLevel, a.OverallWellness,
		} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}
