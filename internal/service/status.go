package service

import (
	"sync/atomic"

	"OddsSync/internal/model"
)

const initialStatusMessage = "尚未执行同步"

// StatusTracker 保存最近一次同步结果；整体替换，读取返回副本
type StatusTracker struct {
	current atomic.Pointer[model.IngestionStatus]
}

func NewStatusTracker() *StatusTracker {
	t := &StatusTracker{}
	t.current.Store(&model.IngestionStatus{Message: initialStatusMessage})
	return t
}

// Set 整体替换当前状态
func (t *StatusTracker) Set(st model.IngestionStatus) {
	if st.LastRun != nil {
		lastRun := *st.LastRun
		st.LastRun = &lastRun
	}
	t.current.Store(&st)
}

// Snapshot 返回当前状态副本
func (t *StatusTracker) Snapshot() model.IngestionStatus {
	st := *t.current.Load()
	if st.LastRun != nil {
		lastRun := *st.LastRun
		st.LastRun = &lastRun
	}
	return st
}
