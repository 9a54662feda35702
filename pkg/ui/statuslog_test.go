package ui

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeSender) records(t *testing.T) []logRecordMsg {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]logRecordMsg, 0, len(f.msgs))
	for _, m := range f.msgs {
		rec, ok := m.(logRecordMsg)
		if !ok {
			t.Fatalf("unexpected message %T", m)
		}
		out = append(out, rec)
	}
	return out
}

func TestStatusCore_DropsBeforeProgramSet(t *testing.T) {
	core := NewStatusCore(zapcore.WarnLevel)
	logger := zap.New(core)
	logger.Warn("too early")

	sender := &fakeSender{}
	core.SetProgram(sender)
	logger.Warn("on time")

	recs := sender.records(t)
	if len(recs) != 1 || recs[0].Summary != "on time" {
		t.Fatalf("expected only the later record, got %+v", recs)
	}
}

func TestStatusCore_LevelsAndFields(t *testing.T) {
	core := NewStatusCore(zapcore.WarnLevel)
	sender := &fakeSender{}
	core.SetProgram(sender)

	logger := zap.New(core).With(zap.String("component", "watcher"))
	logger.Info("ignored")
	logger.Warn("file removed", zap.String("path", "bugs.json"))
	logger.Error("reload failed", zap.Error(errors.New("boom")), zap.Int("attempt", 2))

	recs := sender.records(t)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Summary != "file removed (component=watcher, path=bugs.json)" {
		t.Errorf("unexpected summary %q", recs[0].Summary)
	}
	if recs[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %v", recs[0].Level)
	}
	if recs[1].Summary != "reload failed (attempt=2, component=watcher, error=boom)" {
		t.Errorf("unexpected summary %q", recs[1].Summary)
	}
}

func TestStatusCore_DetachAndSync(t *testing.T) {
	core := NewStatusCore(zapcore.WarnLevel)
	sender := &fakeSender{}
	core.SetProgram(sender)
	core.SetProgram(nil)

	zap.New(core).Error("after detach")
	if len(sender.records(t)) != 0 {
		t.Error("expected no records after detaching")
	}
	if err := core.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}

func TestStatusCore_SharedAcrossWith(t *testing.T) {
	core := NewStatusCore(zapcore.WarnLevel)
	derived := zap.New(core).With(zap.String("k", "v"))

	sender := &fakeSender{}
	core.SetProgram(sender)
	derived.Warn("hello")

	if recs := sender.records(t); len(recs) != 1 || recs[0].Summary != "hello (k=v)" {
		t.Errorf("expected derived logger to reach the program, got %+v", recs)
	}
}
