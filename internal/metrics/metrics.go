package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Metrics holds process-wide counters for the upload pipeline and the
// dashboard feed.
type Metrics struct {
	mu sync.RWMutex

	// Upload metrics
	UploadsTotal         int64
	UploadsFailed        int64
	RowsDecodedTotal     int64
	RowsSkippedTotal     int64
	AssignmentsPersisted int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	activeConnections            int64

	startTime time.Time
}

var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
	})
	return instance
}

// RecordUpload records a completed upload and its persisted assignments.
func (m *Metrics) RecordUpload(persisted int) {
	m.mu.Lock()
	m.UploadsTotal++
	m.AssignmentsPersisted += int64(persisted)
	m.mu.Unlock()
}

// RecordUploadFailed increments the failed upload counter.
func (m *Metrics) RecordUploadFailed() {
	m.mu.Lock()
	m.UploadsFailed++
	m.mu.Unlock()
}

// RecordRowsDecoded adds to the decoded row counter.
func (m *Metrics) RecordRowsDecoded(n int) {
	m.mu.Lock()
	m.RowsDecodedTotal += int64(n)
	m.mu.Unlock()
}

// RecordRowsSkipped adds to the skipped row counter.
func (m *Metrics) RecordRowsSkipped(n int) {
	m.mu.Lock()
	m.RowsSkippedTotal += int64(n)
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int64{
		"uploads_total":                  m.UploadsTotal,
		"uploads_failed":                 m.UploadsFailed,
		"rows_decoded_total":             m.RowsDecodedTotal,
		"rows_skipped_total":             m.RowsSkippedTotal,
		"assignments_persisted_total":    m.AssignmentsPersisted,
		"websocket_connections_total":    m.WebSocketConnectionsTotal,
		"websocket_disconnections_total": m.WebSocketDisconnectionsTotal,
		"websocket_active_connections":   m.activeConnections,
		"uptime_seconds":                 int64(time.Since(m.startTime).Seconds()),
	}
}

// Handler serves the counter snapshot as JSON.
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
