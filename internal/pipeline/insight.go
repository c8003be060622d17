package pipeline

import (
	"math"
	"math/rand"

	"reconnect-biosignal/internal/models"
)

// Conditions 固定的 10 个健康状态标签
var Conditions = []string{
	"Normal Resting",
	"Light Activity",
	"Moderate Exercise",
	"Intense Exercise",
	"Deep Rest",
	"Sleep State",
	"Elevated Stress",
	"Relaxation",
	"Recovery Mode",
	"Optimal Wellness",
}

// conditionInputs 状态分类的全部输入
// 给定这五个输入，级联结果是确定的
type conditionInputs struct {
	HeartRate float64
	Activity  float64
	SpO2      float64
	HRVScore  float64
	Rhythm    models.RhythmClassification
	Pattern   models.PatternType
}

// conditionRule 级联规则：谓词 + 结果标签
type conditionRule struct {
	Label string
	Match func(in conditionInputs) bool
}

// conditionCascade 有序规则表，自上而下首个命中生效
// 数据驱动的表结构便于单独测试与替换
var conditionCascade = []conditionRule{
	{"Sleep State", func(in conditionInputs) bool {
		return in.HeartRate < 60 && in.Activity < 5 && in.Pattern == models.PatternStable
	}},
	{"Deep Rest", func(in conditionInputs) bool {
		return in.HeartRate < 65 && in.Activity < 10 && in.HRVScore > 70
	}},
	{"Intense Exercise", func(in conditionInputs) bool {
		return in.HeartRate > 140 && in.Activity > 100
	}},
	{"Moderate Exercise", func(in conditionInputs) bool {
		return in.HeartRate > 110 && in.Activity > 60
	}},
	{"Light Activity", func(in conditionInputs) bool {
		return in.HeartRate > 90 && in.HeartRate < 110 && in.Activity > 30
	}},
	{"Elevated Stress", func(in conditionInputs) bool {
		return in.HeartRate > 85 && in.HRVScore < 50 && in.Activity < 20
	}},
	{"Relaxation", func(in conditionInputs) bool {
		return in.HeartRate >= 60 && in.HeartRate <= 75 && in.HRVScore > 70 && in.Activity < 20
	}},
	{"Recovery Mode", func(in conditionInputs) bool {
		return in.Rhythm == models.RhythmAthletic && in.HRVScore > 80
	}},
	{"Optimal Wellness", func(in conditionInputs) bool {
		return in.HeartRate >= 65 && in.HeartRate <= 75 && in.HRVScore > 75 &&
			in.SpO2 >= 60 && in.SpO2 <= 100
	}},
}

// classifyCondition 级联分类，无命中时回落到 Normal Resting
func classifyCondition(in conditionInputs) string {
	for _, rule := range conditionCascade {
		if rule.Match(in) {
			return rule.Label
		}
	}
	return "Normal Resting"
}

// InsightStage 综合洞察层（流水线第四阶段）
//
// 融合前三层输出，产出状态分类、置信度、健康评估与建议。
// 随机源由外部注入，测试时可用固定种子获得确定结果。
type InsightStage struct {
	rng     *rand.Rand
	history []string // 最近的状态标签
}

const conditionHistorySize = 100

func NewInsightStage(rng *rand.Rand) *InsightStage {
	return &InsightStage{rng: rng}
}

// HistoryLen 状态历史长度（容量不变式测试用）
func (s *InsightStage) HistoryLen() int { return len(s.history) }

// Analyze 融合分析
func (s *InsightStage) Analyze(
	raw models.Sample,
	quality models.QualityResult,
	spectral models.SpectralResult,
	temporal models.TemporalResult,
) models.InsightResult {
	in := conditionInputs{
		HeartRate: raw.HeartRate,
		Activity:  raw.Activity,
		SpO2:      raw.SpO2,
		HRVScore:  spectral.HRVFeatures.HRVScore,
		Rhythm:    spectral.Rhythm,
		Pattern:   temporal.PatternType,
	}
	condition := classifyCondition(in)

	confidence := calculateConfidence(
		quality.QualityScore,
		quality.SignalToNoise,
		temporal.TemporalConsistency,
	)

	probabilities := s.generateProbabilities(condition)

	assessment := s.assessWellness(raw, spectral.HRVFeatures, temporal.CircadianAlignment, quality.QualityScore)

	risks := identifyRiskFactors(raw, spectral.HRVFeatures, quality, temporal.CircadianAlignment)
	positives := identifyPositiveIndicators(raw, spectral.HRVFeatures, quality.QualityScore, temporal.CircadianAlignment)

	recommendation := generateRecommendation(condition, assessment.OverallWellness, risks)

	s.history = append(s.history, condition)
	if len(s.history) > conditionHistorySize {
		s.history = s.history[1:]
	}

	return models.InsightResult{
		Condition:          condition,
		Confidence:         confidence,
		WellnessScore:      assessment.OverallWellness,
		Probabilities:      probabilities,
		Recommendation:     recommendation,
		WellnessAssessment: assessment,
		RiskFactors:        risks,
		PositiveIndicators: positives,
	}
}

// calculateConfidence 置信度 = 0.4*质量 + 0.3*归一化SNR + 0.3*时域一致性
// 结果裁剪到 [0.70, 0.99]
func calculateConfidence(qualityScore, snr, temporalConsistency float64) float64 {
	snrNormalized := clip((snr-20)/30, 0, 1)
	confidence := qualityScore*0.4 + snrNormalized*0.3 + temporalConsistency*0.3
	return roundTo(clip(confidence, 0.70, 0.99), 3)
}

// generateProbabilities Dirichlet 抽样：检出状态浓度 10，其余 1，归一化后和为 1
func (s *InsightStage) generateProbabilities(detected string) map[string]float64 {
	draws := make(map[string]float64, len(Conditions))
	var total float64
	for _, condition := range Conditions {
		alpha := 1
		if condition == detected {
			alpha = 10
		}
		// 整数浓度的 Gamma 抽样 = alpha 个指数抽样之和
		var g float64
		for i := 0; i < alpha; i++ {
			g += -math.Log(1 - s.rng.Float64())
		}
		draws[condition] = g
		total += g
	}
	for condition := range draws {
		draws[condition] /= total
	}
	return draws
}

func (s *InsightStage) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// assessWellness 多维健康评估
// 各维度按分层表打分并带小幅抖动，抖动来自注入的随机源
func (s *InsightStage) assessWellness(
	data models.Sample,
	hrv models.HRVFeatures,
	alignment models.CircadianAlignment,
	qualityScore float64,
) models.WellnessAssessment {
	hr := data.HeartRate

	var cardio float64
	switch {
	case hr >= 60 && hr <= 80 && hrv.HRVScore > 70:
		cardio = 90 + s.uniform(-5, 5)
	case hr >= 55 && hr <= 90 && hrv.HRVScore > 60:
		cardio = 75 + s.uniform(-5, 10)
	case hr >= 50 && hr <= 100:
		cardio = 65 + s.uniform(-10, 10)
	default:
		cardio = 50 + s.uniform(-10, 15)
	}
	cardio = clip(cardio, 0, 100)

	var resp float64
	switch {
	case data.SpO2 >= 98:
		resp = 95 + s.uniform(-3, 5)
	case data.SpO2 >= 95:
		resp = 85 + s.uniform(-5, 10)
	case data.SpO2 >= 92:
		resp = 70 + s.uniform(-5, 10)
	default:
		resp = 55 + s.uniform(-10, 10)
	}
	resp = clip(resp, 0, 100)

	var activity float64
	switch {
	case data.Activity >= 20 && data.Activity <= 80:
		activity = 85 + s.uniform(-5, 10)
	case data.Activity < 20:
		activity = 60 + s.uniform(-10, 10)
	default:
		activity = 75 + s.uniform(-5, 10)
	}
	activity = clip(activity, 0, 100)

	// 压力 = 100*(1 - HRV 惩罚与节律惩罚的均值)
	hrvPenalty := 0.2
	if hrv.HRVScore < 50 {
		hrvPenalty = 0.6
	} else if hrv.HRVScore < 60 {
		hrvPenalty = 0.4
	}
	circadianPenalty := 0.2
	if alignment.AlignmentScore < 0.7 {
		circadianPenalty = 0.5
	}
	stress := clip((1-(hrvPenalty+circadianPenalty)/2)*100, 0, 100)

	overall := cardio*0.35 + resp*0.25 + activity*0.20 + stress*0.20
	overall *= 0.8 + qualityScore*0.2
	overall = clip(overall, 0, 100)

	return models.WellnessAssessment{
		CardiovascularHealth: roundTo(cardio, 1),
		RespiratoryHealth:    roundTo(resp, 1),
		ActivityLevel:        roundTo(activity, 1),
		StressLevel:          roundTo(stress, 1),
		OverallWellness:      roundTo(overall, 1),
	}
}

// identifyRiskFactors 风险因素检查，各规则独立触发
func identifyRiskFactors(
	data models.Sample,
	hrv models.HRVFeatures,
	quality models.QualityResult,
	alignment models.CircadianAlignment,
) []string {
	risks := []string{}

	if data.HeartRate > 100 {
		risks = append(risks, "Elevated heart rate")
	} else if data.HeartRate < 50 {
		risks = append(risks, "Low heart rate (bradycardia)")
	}
	if hrv.HRVScore < 50 {
		risks = append(risks, "Low heart rate variability")
	}
	if data.SpO2 < 95 {
		risks = append(risks, "Low blood oxygen saturation")
	}
	if data.Temperature > 38 {
		risks = append(risks, "Elevated body temperature")
	} else if data.Temperature < 36 {
		risks = append(risks, "Low body temperature")
	}
	if quality.QualityScore < 0.6 {
		risks = append(risks, "Poor signal quality - check sensor placement")
	}
	if alignment.AlignmentScore < 0.6 {
		risks = append(risks, "Circadian rhythm misalignment")
	}
	if len(quality.Artifacts) > 2 {
		risks = append(risks, "Multiple signal artifacts detected")
	}

	return risks
}

// identifyPositiveIndicators 正向指标检查
func identifyPositiveIndicators(
	data models.Sample,
	hrv models.HRVFeatures,
	qualityScore float64,
	alignment models.CircadianAlignment,
) []string {
	positives := []string{}

	if hrv.HRVScore > 75 {
		positives = append(positives, "Excellent heart rate variability")
	} else if hrv.HRVScore > 65 {
		positives = append(positives, "Good heart rate variability")
	}
	if data.SpO2 >= 98 {
		positives = append(positives, "Optimal blood oxygen saturation")
	}
	if qualityScore > 0.85 {
		positives = append(positives, "Excellent signal quality")
	}
	if alignment.AlignmentScore > 0.85 {
		positives = append(positives, "Strong circadian rhythm alignment")
	}
	if data.Temperature >= 36.5 && data.Temperature <= 37.2 {
		positives = append(positives, "Normal body temperature")
	}
	if data.HeartRate >= 60 && data.HeartRate <= 75 {
		positives = append(positives, "Optimal resting heart rate")
	}

	return positives
}

// baseRecommendations 各状态的基础建议文案
var baseRecommendations = map[string]string{
	"Normal Resting":    "Maintain current activity levels and hydration",
	"Light Activity":    "Continue with light movement, stay hydrated",
	"Moderate Exercise": "Good workout intensity, monitor heart rate recovery",
	"Intense Exercise":  "High intensity detected - ensure proper rest periods",
	"Deep Rest":         "Excellent recovery state, maintain relaxation",
	"Sleep State":       "Sleep pattern detected, ensure adequate rest duration",
	"Elevated Stress":   "Consider stress-reduction techniques like deep breathing",
	"Relaxation":        "Excellent relaxation state, continue current activity",
	"Recovery Mode":     "Optimal recovery detected, light activity recommended",
	"Optimal Wellness":  "Excellent health indicators, maintain current lifestyle",
}

// generateRecommendation 基础文案 + 按风险与健康分追加后缀
func generateRecommendation(condition string, wellnessScore float64, risks []string) string {
	rec, ok := baseRecommendations[condition]
	if !ok {
		rec = "Continue monitoring health metrics"
	}

	for _, risk := range risks {
		switch risk {
		case "Low heart rate variability":
			rec += " | Consider relaxation exercises to improve HRV"
		case "Low blood oxygen saturation":
			rec += " | Deep breathing exercises recommended"
		case "Circadian rhythm misalignment":
			rec += " | Try to maintain consistent sleep schedule"
		}
	}

	if wellnessScore < 60 {
		rec += " | Consult healthcare provider if symptoms persist"
	} else if wellnessScore > 85 {
		rec += " | Great health status - keep it up!"
	}

	return rec
}
