// Package notify delivers short user-facing notices ("added to cart",
// "could not place order") produced by the stores and flows.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level classifies a notice.
type Level string

const (
	// LevelSuccess marks a completed action.
	LevelSuccess Level = "success"
	// LevelError marks a failed action.
	LevelError Level = "error"
)

// DefaultRecorderSize is the number of notices a Recorder keeps when no
// size is given.
const DefaultRecorderSize = 50

// Notifier receives user-facing notices.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Notice is one recorded message.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// SlogNotifier writes notices to a structured logger.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a notifier that logs to logger, or to
// slog.Default when logger is nil.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

// Success logs at info level.
func (n *SlogNotifier) Success(msg string) {
	n.logger.Info("notice", "level", LevelSuccess, "message", msg)
}

// Error logs at warn level.
func (n *SlogNotifier) Error(msg string) {
	n.logger.Warn("notice", "level", LevelError, "message", msg)
}

// Recorder keeps the most recent notices in memory. Tool handlers drain it
// to return notices alongside their results.
type Recorder struct {
	mu      sync.Mutex
	size    int
	notices []Notice
	next    Notifier
}

// NewRecorder creates a recorder holding at most size notices. When next is
// non-nil every notice is forwarded to it as well.
func NewRecorder(size int, next Notifier) *Recorder {
	if size <= 0 {
		size = DefaultRecorderSize
	}
	return &Recorder{size: size, next: next}
}

// Success records a success notice.
func (r *Recorder) Success(msg string) {
	r.add(Notice{Level: LevelSuccess, Message: msg})
	if r.next != nil {
		r.next.Success(msg)
	}
}

// Error records an error notice.
func (r *Recorder) Error(msg string) {
	r.add(Notice{Level: LevelError, Message: msg})
	if r.next != nil {
		r.next.Error(msg)
	}
}

func (r *Recorder) add(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	if over := len(r.notices) - r.size; over > 0 {
		r.notices = append(r.notices[:0], r.notices[over:]...)
	}
}

// Notices returns a copy of the recorded notices, oldest first.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns the recorded notices and forgets them.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

type recorderKey struct{}

// WithRecorder returns a context carrying a fresh Recorder. Notices raised
// through For with that context land in it and nowhere else, so concurrent
// calls never see each other's notices.
func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	r := NewRecorder(DefaultRecorderSize, nil)
	return context.WithValue(ctx, recorderKey{}, r), r
}

// FromContext returns the Recorder attached by WithRecorder, or nil.
func FromContext(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

// For returns the notifier to use while serving ctx. When ctx carries a
// Recorder, notices are recorded there and forwarded to n; otherwise n is
// returned as is.
func For(ctx context.Context, n Notifier) Notifier {
	r := FromContext(ctx)
	if r == nil {
		return n
	}
	if n == nil {
		return r
	}
	return tee{r, n}
}

// tee sends every notice to both notifiers.
type tee struct {
	first, second Notifier
}

func (t tee) Success(msg string) {
	t.first.Success(msg)
	t.second.Success(msg)
}

func (t tee) Error(msg string) {
	t.first.Error(msg)
	t.second.Error(msg)
}

// Verify interface compliance.
var (
	_ Notifier = (*SlogNotifier)(nil)
	_ Notifier = (*Recorder)(nil)
	_ Notifier = tee{}
)
