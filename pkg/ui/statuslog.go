package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zapcore"
)

// logRecordMsg delivers a log record to the model for display in the
// status bar.
type logRecordMsg struct {
	Summary string
	Level   zapcore.Level
}

// statusFadeMsg clears the status bar if no newer message replaced it.
type statusFadeMsg struct {
	seq int
}

// statusFadeDelay is how long status messages stay visible before the bar
// falls back to the key hints.
const statusFadeDelay = 5 * time.Second

// Sender is the part of tea.Program the status core needs.
type Sender interface {
	Send(msg tea.Msg)
}

type senderBox struct {
	s Sender
}

// StatusCore is a zapcore.Core that routes records into a running
// bubbletea program as messages. Records below the level are dropped, as
// are records arriving before SetProgram is called.
//
// Cores derived via With share the program pointer, so one SetProgram
// call reaches all of them.
type StatusCore struct {
	zapcore.LevelEnabler
	program *atomic.Pointer[senderBox]
	fields  []zapcore.Field
}

// NewStatusCore creates a core that forwards records at or above level.
func NewStatusCore(level zapcore.LevelEnabler) *StatusCore {
	return &StatusCore{
		LevelEnabler: level,
		program:      &atomic.Pointer[senderBox]{},
	}
}

// SetProgram sets the program that receives log messages. Safe to call
// from any goroutine; nil detaches.
func (c *StatusCore) SetProgram(p Sender) {
	if p == nil {
		c.program.Store(nil)
		return
	}
	c.program.Store(&senderBox{s: p})
}

// With returns a core that adds fields to every record.
func (c *StatusCore) With(fields []zapcore.Field) zapcore.Core {
	return &StatusCore{
		LevelEnabler: c.LevelEnabler,
		program:      c.program,
		fields:       append(append([]zapcore.Field(nil), c.fields...), fields...),
	}
}

// Check adds the core when the entry's level is enabled.
func (c *StatusCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

// Write formats the record as "message (key=value, ...)" and sends it.
func (c *StatusCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	box := c.program.Load()
	if box == nil {
		return nil
	}
	box.s.Send(logRecordMsg{Summary: summarize(e.Message, c.fields, fields), Level: e.Level})
	return nil
}

// Sync is a no-op.
func (c *StatusCore) Sync() error {
	return nil
}

func summarize(msg string, sets ...[]zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	var keys []string
	for _, fields := range sets {
		for _, f := range fields {
			f.AddTo(enc)
			keys = append(keys, f.Key)
		}
	}
	if len(keys) == 0 {
		return msg
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		parts = append(parts, fmt.Sprintf("%s=%v", k, enc.Fields[k]))
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}

// statusFadeCmd schedules the fade for status message seq.
func statusFadeCmd(seq int) tea.Cmd {
	return tea.Tick(statusFadeDelay, func(time.Time) tea.Msg {
		return statusFadeMsg{seq: seq}
	})
}
