package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	logstashDialTimeout   = 2 * time.Second
	logstashWriteTimeout  = time.Second
	logstashRetryInterval = 5 * time.Second
)

// LogstashWriter streams log lines to a Logstash TCP input without ever
// blocking the caller. It keeps a single connection open and drops writes
// while Logstash is unreachable, retrying after a cool-down window.
// It satisfies zapcore.WriteSyncer so it can be teed into the zap core.
type LogstashWriter struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
}

func NewLogstashWriter(addr string) (*LogstashWriter, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}
	return &LogstashWriter{addr: addr}, nil
}

// Write forwards the payload to Logstash when a connection is available.
// Failed writes report success to the caller; the log line is dropped rather
// than stalling the application.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	data := make([]byte, len(p))
	copy(data, p)
	if data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if err := w.ensureConnLocked(); err != nil {
		return len(p), nil
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(logstashWriteTimeout))
	if _, err := w.conn.Write(data); err != nil {
		_ = w.conn.Close()
		w.conn = nil
		w.nextRetry = time.Now().Add(logstashRetryInterval)
		return len(p), nil
	}
	return len(p), nil
}

// Sync is a no-op; lines are written immediately or dropped.
func (w *LogstashWriter) Sync() error { return nil }

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *LogstashWriter) ensureConnLocked() error {
	if w.conn != nil {
		return nil
	}
	now := time.Now()
	if !w.nextRetry.IsZero() && now.Before(w.nextRetry) {
		return errRetryCooldown
	}
	conn, err := net.DialTimeout("tcp", w.addr, logstashDialTimeout)
	if err != nil {
		w.nextRetry = now.Add(logstashRetryInterval)
		return err
	}
	w.conn = conn
	w.nextRetry = time.Time{}
	return nil
}

var errRetryCooldown = errors.New("logstash: retry cooldown in effect")
