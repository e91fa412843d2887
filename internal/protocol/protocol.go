// internal/protocol/protocol.go
package protocol

import (
	"io"
	"sync"
	"time"
)

// Port is the serial handle the link drives. go.bug.st/serial ports satisfy it.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// PortOpener opens a port by name. Reads on the returned port must time out
// periodically (returning 0, nil) so the link can poll its disconnect flag.
type PortOpener func(name string, baudRate int) (Port, error)

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64     `json:"bytes_written"`
	BytesRead      int64     `json:"bytes_read"`
	OperationCount int64     `json:"operation_count"`
	ErrorCount     int64     `json:"error_count"`
	LastActivity   time.Time `json:"last_activity"`
	IsConnected    bool      `json:"is_connected"`
}

type statsRecorder struct {
	mu    sync.Mutex
	stats ProtocolStats
}

func (r *statsRecorder) read(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) wrote(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) failed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

func (r *statsRecorder) connected(value bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.IsConnected = value
}

func (r *statsRecorder) snapshot() ProtocolStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
