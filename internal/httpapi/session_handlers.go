package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"reconnect-biosignal/internal/models"
	"reconnect-biosignal/internal/session"
)

// SessionCreateRequest POST /api/v1/sessions 请求体
type SessionCreateRequest struct {
	DeviceID    string            `json:"device_id"`
	UserID      string            `json:"user_id,omitempty"`
	SessionType string            `json:"session_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CreateSession POST /api/v1/sessions
func (h *BiosignalHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("session store unavailable"))
		return
	}

	var req SessionCreateRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("device_id is required"))
		return
	}

	s, err := h.sessions.Create(r.Context(), req.DeviceID, req.UserID, models.SessionType(req.SessionType), req.Metadata)
	if err != nil {
		h.logger.Error("session creation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create session"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

// GetSession GET /api/v1/sessions/{id}
func (h *BiosignalHandler) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("session store unavailable"))
		return
	}

	s, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("session not found"))
			return
		}
		h.logger.Error("session retrieval failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get session"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

// EndSession POST /api/v1/sessions/{id}/end
func (h *BiosignalHandler) EndSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("session store unavailable"))
		return
	}

	s, err := h.sessions.End(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("session not found"))
			return
		}
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

// SessionReport GET /api/v1/sessions/{id}/report.xlsx
func (h *BiosignalHandler) SessionReport(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("session store unavailable"))
		return
	}

	s, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("session not found"))
			return
		}
		h.logger.Error("session retrieval failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get session"))
		return
	}

	data, err := GenerateSessionReport(s)
	if err != nil {
		h.logger.Error("report generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate report"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="session_`+sessionID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
