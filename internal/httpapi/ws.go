package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage websocket 推送信封
type WSMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

const wsPushInterval = 100 * time.Millisecond // 10Hz

// StreamWS GET /ws/stream 按采样节奏持续推送完整流水线结果
func (h *BiosignalHandler) StreamWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	// 读泵只用于感知客户端关闭
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("websocket client disconnected", zap.String("remote", conn.RemoteAddr().String()))
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			result, err := h.engine.StreamOnce(r.Context())
			if err != nil {
				h.logger.Warn("websocket stream processing failed", zap.Error(err))
				result = fallbackStreamResult()
			}

			msg := WSMessage{
				Type:      "stream_data",
				Data:      result,
				Timestamp: time.Now().Unix(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Info("websocket write failed, closing",
					zap.String("remote", conn.RemoteAddr().String()),
					zap.Error(err),
				)
				return
			}
		}
	}
}
