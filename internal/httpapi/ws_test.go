package httpapi

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconnect-biosignal/internal/models"
)

func TestStreamWS_PushesResults(t *testing.T) {
	srv, _ := setupTestServer(t, &fakeEngine{result: testStreamResult()})
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// 连续读两条，确认是持续推送而非单发
	for i := 0; i < 2; i++ {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type      string              `json:"type"`
			Data      models.StreamResult `json:"data"`
			Timestamp int64               `json:"timestamp"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "stream_data", msg.Type)
		assert.Equal(t, 72.0, msg.Data.RawSignals.HeartRate)
		assert.NotZero(t, msg.Timestamp)
	}
}
