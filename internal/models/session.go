package models

import "time"

// SessionType 监测会话类型
type SessionType string

const (
	SessionWorkout         SessionType = "workout"
	SessionMeditation      SessionType = "meditation"
	SessionSleep           SessionType = "sleep"
	SessionDailyMonitoring SessionType = "daily_monitoring"
	SessionClinical        SessionType = "clinical"
)

// Session 监测会话记录（不透明的键值生命周期记录，仅存 Redis）
type Session struct {
	SessionID           string            `json:"session_id"`
	DeviceID            string            `json:"device_id"`
	UserID              string            `json:"user_id,omitempty"`
	SessionType         SessionType       `json:"session_type"`
	StartTime           time.Time         `json:"start_time"`
	EndTime             *time.Time        `json:"end_time,omitempty"`
	Status              string            `json:"status"` // active / completed
	DataPointsCollected int               `json:"data_points_collected"`
	AverageWellness     *float64          `json:"average_wellness_score,omitempty"`
	Summary             string            `json:"summary,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}
