package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconnect-biosignal/internal/models"
)

func testResult() models.StreamResult {
	return models.StreamResult{
		Timestamp: time.Now(),
		InsightLayer: models.InsightResult{
			Condition:     "Elevated Stress",
			Confidence:    0.88,
			WellnessScore: 64.2,
			RiskFactors:   []string{"Low heart rate variability"},
		},
	}
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var received InsightEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, nil)
	require.True(t, n.Enabled())

	err := n.Notify(context.Background(), "DEVICE-1", testResult())
	require.NoError(t, err)

	assert.Equal(t, "DEVICE-1", received.DeviceID)
	assert.Equal(t, "Elevated Stress", received.Condition)
	assert.Equal(t, 64.2, received.WellnessScore)
	assert.Contains(t, received.RiskFactors, "Low heart rate variability")
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, nil)
	err := n.Notify(context.Background(), "DEVICE-1", testResult())
	assert.Error(t, err)
}

func TestWebhookNotifier_DisabledIsNoop(t *testing.T) {
	n := NewWebhookNotifier("", time.Second, nil)

	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), "DEVICE-1", testResult()))
}
