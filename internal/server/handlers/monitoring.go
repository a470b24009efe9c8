package handlers

import (
	"net/http"
	"time"
)

// SessionCounter reports open editing sessions.
type SessionCounter interface {
	IDs() []string
}

// MonitoringHandlers serves health checks.
type MonitoringHandlers struct {
	sessions SessionCounter
	version  string
	started  time.Time
}

func NewMonitoringHandlers(sessions SessionCounter, version string) *MonitoringHandlers {
	return &MonitoringHandlers{sessions: sessions, version: version, started: time.Now()}
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
}

func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	_ = writeJSONPretty(w, r, http.StatusOK, healthResponse{
		Status:   "ok",
		Version:  h.version,
		Sessions: len(h.sessions.IDs()),
		Uptime:   time.Since(h.started).Truncate(time.Second).String(),
	})
}
