package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
	"reconnect-biosignal/internal/proclog"
	"reconnect-biosignal/internal/session"
	"reconnect-biosignal/internal/simulator"
)

// Engine 流水线引擎入口（由 service 层实现）
type Engine interface {
	// StreamOnce 取一条当前采样并跑完整条流水线
	StreamOnce(ctx context.Context) (models.StreamResult, error)
	DeviceStatus() models.DeviceStatus
	ServicesHealth(ctx context.Context) map[string]bool
}

// ScenarioController 模拟器场景控制（演示接口用）
type ScenarioController interface {
	SetScenario(s simulator.Scenario) error
	InjectAnomaly(channel, anomaly string) error
}

// BiosignalHandler 分析接口处理器
type BiosignalHandler struct {
	engine    Engine
	sessions  *session.Manager // Redis 关闭时为 nil
	scenarios ScenarioController
	plog      *proclog.Log
	logger    *zap.Logger

	connectedClients int64
}

func NewBiosignalHandler(
	engine Engine,
	sessions *session.Manager,
	scenarios ScenarioController,
	plog *proclog.Log,
	logger *zap.Logger,
) *BiosignalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BiosignalHandler{
		engine:    engine,
		sessions:  sessions,
		scenarios: scenarios,
		plog:      plog,
		logger:    logger,
	}
}

// ConnectedClients 当前已注册客户端数
func (h *BiosignalHandler) ConnectedClients() int {
	return int(atomic.LoadInt64(&h.connectedClients))
}

// Root GET / 服务信息
func (h *BiosignalHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"service": "Reconnect Biosignal Analysis API",
		"version": "1.0.0",
		"status":  "operational",
		"features": []string{
			"Wearable Device Simulation",
			"Signal Quality Analysis",
			"Spectral & HRV Analysis",
			"Temporal & Circadian Analysis",
			"Health Condition Insights",
		},
		"endpoints": map[string]string{
			"health":    "/api/v1/health",
			"connect":   "/api/v1/connect",
			"stream":    "/api/v1/stream",
			"predict":   "/api/v1/predict",
			"sessions":  "/api/v1/sessions",
			"websocket": "/ws/stream",
		},
	}))
}

// Health GET /api/v1/health 健康检查
func (h *BiosignalHandler) Health(w http.ResponseWriter, r *http.Request) {
	activeSessions := 0
	if h.sessions != nil {
		if n, err := h.sessions.ActiveCount(r.Context()); err == nil {
			activeSessions = n
		} else {
			h.logger.Warn("failed to count active sessions", zap.Error(err))
		}
	}

	status := models.SystemStatus{
		Status:           "healthy",
		Timestamp:        time.Now(),
		Services:         h.engine.ServicesHealth(r.Context()),
		ConnectedClients: h.ConnectedClients(),
		ActiveSessions:   activeSessions,
	}
	writeJSON(w, http.StatusOK, Ok(status))
}

// ConnectRequest POST /api/v1/connect 请求体
type ConnectRequest struct {
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
	AppVersion string `json:"app_version"`
}

// ConnectResponse 连接响应
type ConnectResponse struct {
	Success           bool                `json:"success"`
	Message           string              `json:"message"`
	SessionID         string              `json:"session_id"`
	DeviceStatus      models.DeviceStatus `json:"device_status"`
	AvailableFeatures []string            `json:"available_features"`
}

// Connect POST /api/v1/connect 注册客户端
func (h *BiosignalHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("device_id is required"))
		return
	}

	atomic.AddInt64(&h.connectedClients, 1)
	h.logger.Info("client connected",
		zap.String("device_id", req.DeviceID),
		zap.String("device_type", req.DeviceType),
	)
	h.plog.Append(proclog.Entry{
		Layer:    "connection",
		Message:  "client connected",
		DeviceID: req.DeviceID,
		Fields:   map[string]any{"device_type": req.DeviceType, "app_version": req.AppVersion},
	})

	writeJSON(w, http.StatusOK, Ok(ConnectResponse{
		Success:      true,
		Message:      "Connected successfully to biosignal backend",
		SessionID:    sessionToken(req.DeviceID),
		DeviceStatus: h.engine.DeviceStatus(),
		AvailableFeatures: []string{
			"real_time_streaming",
			"quality_analysis",
			"spectral_analysis",
			"temporal_analysis",
			"health_insights",
		},
	}))
}

func sessionToken(deviceID string) string {
	return "session_" + deviceID + "_" + time.Now().Format("20060102150405")
}

// Stream GET /api/v1/stream 单次完整流水线结果
// 流水线不可用时退回固定兜底数据而不是报错
// 可选 ?session_id= 把本次结果计入监测会话统计
func (h *BiosignalHandler) Stream(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.StreamOnce(r.Context())
	if err != nil {
		h.logger.Warn("stream processing failed, returning fallback data", zap.Error(err))
		writeJSON(w, http.StatusOK, Ok(fallbackStreamResult()))
		return
	}

	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" && h.sessions != nil {
		if err := h.sessions.RecordDataPoint(r.Context(), sessionID, result.InsightLayer.WellnessScore); err != nil {
			h.logger.Warn("failed to record session data point",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// Predict GET /api/v1/predict 精简预测视图
func (h *BiosignalHandler) Predict(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.StreamOnce(r.Context())
	if err != nil {
		h.logger.Warn("prediction failed, returning fallback data", zap.Error(err))
		writeJSON(w, http.StatusOK, Ok(fallbackPrediction()))
		return
	}

	insight := result.InsightLayer
	writeJSON(w, http.StatusOK, Ok(models.PredictionResult{
		Timestamp:      result.Timestamp,
		Condition:      insight.Condition,
		Confidence:     insight.Confidence,
		WellnessScore:  insight.WellnessScore,
		Probabilities:  insight.Probabilities,
		SignalQuality:  result.QualityLayer.QualityAssessment,
		Recommendation: insight.Recommendation,
		Metrics: map[string]float64{
			"heart_rate":  result.RawSignals.HeartRate,
			"spo2":        result.RawSignals.SpO2,
			"temperature": result.RawSignals.Temperature,
			"activity":    result.RawSignals.Activity,
		},
	}))
}

// ProcessingLogs GET /api/v1/logs/processing?limit=
func (h *BiosignalHandler) ProcessingLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 100)
	logs := h.plog.Recent(limit)
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"total": len(logs),
		"logs":  logs,
	}))
}

// DemoScenarioRequest POST /api/v1/demo/scenario 请求体
// scenario 与 (channel, anomaly) 二选一
type DemoScenarioRequest struct {
	Scenario string `json:"scenario,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Anomaly  string `json:"anomaly,omitempty"`
}

// DemoScenario POST /api/v1/demo/scenario 切换模拟场景或注入异常
func (h *BiosignalHandler) DemoScenario(w http.ResponseWriter, r *http.Request) {
	if h.scenarios == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("simulator control unavailable"))
		return
	}

	var req DemoScenarioRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	switch {
	case req.Scenario != "":
		if err := h.scenarios.SetScenario(simulator.Scenario(req.Scenario)); err != nil {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"scenario": req.Scenario}))
	case req.Channel != "" && req.Anomaly != "":
		if err := h.scenarios.InjectAnomaly(req.Channel, req.Anomaly); err != nil {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"channel": req.Channel, "anomaly": req.Anomaly}))
	default:
		writeJSON(w, http.StatusBadRequest, Fail("scenario or channel+anomaly required"))
	}
}
