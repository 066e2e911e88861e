package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// MaxCapturedRecords is the number of warning-and-above records retained
// for the exit summary.
const MaxCapturedRecords = 100

// CaptureHandler is a slog.Handler middleware that forwards every record
// to the wrapped handler and additionally retains recent warning and
// error records in a circular buffer, so the exit summary can show what
// went wrong even when logs scrolled away (or were discarded for the TUI).
type CaptureHandler struct {
	inner slog.Handler

	mu     sync.Mutex
	buffer []string
	bufIdx int
	total  int
}

// NewCaptureHandler wraps inner with warning capture.
func NewCaptureHandler(inner slog.Handler) *CaptureHandler {
	return &CaptureHandler{
		inner:  inner,
		buffer: make([]string, MaxCapturedRecords),
	}
}

// Enabled implements slog.Handler. Capture happens at warn and above
// regardless of the inner handler's level.
func (h *CaptureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn || h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *CaptureHandler) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level >= slog.LevelWarn {
		h.capture(rec)
	}
	if h.inner.Enabled(ctx, rec.Level) {
		return h.inner.Handle(ctx, rec)
	}
	return nil
}

// WithAttrs implements slog.Handler. The capture buffer is shared with
// the derived handler, so one summary covers the whole logger tree.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedCapture{parent: h, inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	return &derivedCapture{parent: h, inner: h.inner.WithGroup(name)}
}

func (h *CaptureHandler) capture(rec slog.Record) {
	var b strings.Builder
	b.WriteString(rec.Level.String())
	b.WriteString(" ")
	b.WriteString(rec.Message)
	rec.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})

	h.mu.Lock()
	h.buffer[h.bufIdx] = b.String()
	h.bufIdx = (h.bufIdx + 1) % MaxCapturedRecords
	h.total++
	h.mu.Unlock()
}

// RecentWarnings returns up to n of the most recent captured records,
// oldest first.
func (h *CaptureHandler) RecentWarnings(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxCapturedRecords {
		n = MaxCapturedRecords
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxCapturedRecords) % MaxCapturedRecords
		if h.buffer[idx] != "" {
			lines = append(lines, h.buffer[idx])
		}
	}
	return lines
}

// WarningCount returns the total number of captured records, including
// those that have rotated out of the buffer.
func (h *CaptureHandler) WarningCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// derivedCapture forwards capture to the parent so WithAttrs/WithGroup
// loggers share one buffer.
type derivedCapture struct {
	parent *CaptureHandler
	inner  slog.Handler
}

func (d *derivedCapture) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn || d.inner.Enabled(ctx, level)
}

func (d *derivedCapture) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level >= slog.LevelWarn {
		d.parent.capture(rec)
	}
	if d.inner.Enabled(ctx, rec.Level) {
		return d.inner.Handle(ctx, rec)
	}
	return nil
}

func (d *derivedCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedCapture{parent: d.parent, inner: d.inner.WithAttrs(attrs)}
}

func (d *derivedCapture) WithGroup(name string) slog.Handler {
	return &derivedCapture{parent: d.parent, inner: d.inner.WithGroup(name)}
}
