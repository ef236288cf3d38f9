package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
)

// lockedBuffer serialises writes from concurrent tightening workers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestLogger is the zerolog backend writing into memory, with helpers for
// asserting on what was logged.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	f, err := formulation.Encode(ctx, net, u, l, formulation.WithLogger(logger))
//	assert.True(t, logger.ContainsMessage("model encoded"))
type TestLogger struct {
	*ZerologLogger
	out *lockedBuffer
}

// NewTestLogger returns a logger capturing entries at or above level and the
// buffer it writes to.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	out := &lockedBuffer{buf: buf}
	return &TestLogger{ZerologLogger: NewZerologLogger(out, level), out: out}, buf
}

// With keeps the returned logger attached to the same buffer.
func (t *TestLogger) With(fields ...any) Logger {
	child, _ := t.ZerologLogger.With(fields...).(*ZerologLogger)
	return &TestLogger{ZerologLogger: child, out: t.out}
}

// GetLogEntries decodes every captured line.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.out.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.out.String(), message)
}

// CountMessages counts entries whose message equals message exactly.
func (t *TestLogger) CountMessages(message string) int {
	n := 0
	t.each(func(e map[string]interface{}) bool {
		if e[zerologMessageKey] == message {
			n++
		}
		return true
	})
	return n
}

// ContainsField reports whether any entry has key set to value. JSON numbers
// decode as float64.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	found := false
	t.each(func(e map[string]interface{}) bool {
		if v, ok := e[key]; ok && v == value {
			found = true
			return false
		}
		return true
	})
	return found
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	t.out.buf.Reset()
}

func (t *TestLogger) each(fn func(map[string]interface{}) bool) {
	entries, err := t.GetLogEntries()
	if err != nil {
		return
	}
	for _, e := range entries {
		if !fn(e) {
			return
		}
	}
}

const zerologMessageKey = "message"
