package model

import "time"

// IngestionStatus 最近一次同步的结果，进程内有效，重启后清空
type IngestionStatus struct {
	LastRun         *time.Time `json:"lastRun"`
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	EventsSaved     int        `json:"eventsSaved"`
	RunID           string     `json:"runId,omitempty"`
	EventsQualified int        `json:"eventsQualified"`
	EventsSkipped   int        `json:"eventsSkipped"`
	EventsFailed    int        `json:"eventsFailed"`
	DurationMs      int64      `json:"durationMs"`
}
