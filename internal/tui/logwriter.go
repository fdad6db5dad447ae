package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter is an io.Writer that turns zerolog JSON lines into DebugLogMsgs
// for a Bubble Tea program. Use it as the output of a zerolog.Logger.
type LogWriter struct {
	program atomic.Pointer[tea.Program]
}

// NewLogWriter creates a LogWriter that sends debug lines to p. p may be nil
// and attached later, since loggers usually exist before the program does.
func NewLogWriter(p *tea.Program) *LogWriter {
	w := &LogWriter{}
	w.Attach(p)
	return w
}

// Attach sets the program lines are sent to. Lines written while no program
// is attached are dropped.
func (w *LogWriter) Attach(p *tea.Program) {
	w.program.Store(p)
}

// Write implements io.Writer. The send is done in a goroutine to avoid
// deadlocking when called from inside Update.
func (w *LogWriter) Write(b []byte) (int, error) {
	p := w.program.Load()
	if p == nil {
		return len(b), nil
	}
	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		if line == "" {
			continue
		}
		entry := parseLine(line)
		go p.Send(DebugLogMsg{Entry: entry})
	}
	return len(b), nil
}

// zerolog's default field names.
var reserved = map[string]bool{"time": true, "level": true, "component": true, "message": true}

// parseLine extracts time, component and message from one zerolog event.
// Extra fields are appended to the message as key=value pairs. Lines that
// are not JSON are kept verbatim.
func parseLine(line string) DebugEntry {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return DebugEntry{Category: "debug", Message: line}
	}

	entry := DebugEntry{Category: "debug"}
	if lvl, ok := fields["level"].(string); ok && lvl != "" {
		entry.Category = lvl
	}
	if c, ok := fields["component"].(string); ok && c != "" {
		entry.Category = c
	}
	if ts, ok := fields["time"].(string); ok {
		entry.Time = shortTime(ts)
	}
	msg, _ := fields["message"].(string)

	var keys []string
	for k := range fields {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := []string{msg}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	entry.Message = strings.TrimSpace(strings.Join(parts, " "))
	return entry
}

// shortTime reduces an RFC 3339 timestamp to its clock part.
func shortTime(ts string) string {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Format("15:04:05")
	}
	return ts
}
