// Package progress reports the progress of long-running operations such as
// writing render dumps.
package progress

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/df07/go-progressive-sampler/pkg/core"
)

// Tracker creates progress tasks
type Tracker interface {
	// Task starts tracking an operation of the given total size
	Task(name string, size int64) Task
}

// Task receives updates for one tracked operation
type Task interface {
	// Update reports the amount of work done so far
	Update(done int64)
	// Done marks the operation as finished
	Done()
}

type nopTracker struct{}
type nopTask struct{}

func (nopTracker) Task(string, int64) Task { return nopTask{} }
func (nopTask) Update(int64)               {}
func (nopTask) Done()                      {}

// Nop is a tracker that drops all updates
var Nop Tracker = nopTracker{}

// OrNop returns t, or Nop when t is nil
func OrNop(t Tracker) Tracker {
	if t == nil {
		return Nop
	}
	return t
}

// LogTracker logs progress through a logger, at most once per interval for
// each task.
type LogTracker struct {
	logger   core.Logger
	interval time.Duration
}

// NewLogTracker creates a tracker that reports to logger
func NewLogTracker(logger core.Logger, interval time.Duration) *LogTracker {
	return &LogTracker{logger: logger, interval: interval}
}

func (lt *LogTracker) Task(name string, size int64) Task {
	return &logTask{
		logger:  lt.logger,
		limiter: rate.NewLimiter(rate.Every(lt.interval), 1),
		name:    name,
		size:    size,
		start:   time.Now(),
	}
}

type logTask struct {
	logger  core.Logger
	limiter *rate.Limiter
	name    string
	size    int64
	start   time.Time
}

func (t *logTask) Update(done int64) {
	if !t.limiter.Allow() {
		return
	}
	if t.size > 0 {
		t.logger.Printf("%s: %.0f%% (%d/%d)\n", t.name, 100*float64(done)/float64(t.size), done, t.size)
	} else {
		t.logger.Printf("%s: %d\n", t.name, done)
	}
}

func (t *logTask) Done() {
	t.logger.Printf("%s: done in %v\n", t.name, time.Since(t.start).Round(time.Millisecond))
}

// Func is a tracker that forwards every update to a callback
type Func func(name string, done, size int64)

func (f Func) Task(name string, size int64) Task {
	return &funcTask{fn: f, name: name, size: size}
}

type funcTask struct {
	fn   Func
	name string
	size int64
	last int64
}

func (t *funcTask) Update(done int64) {
	t.last = done
	t.fn(t.name, done, t.size)
}

func (t *funcTask) Done() {
	if t.last != t.size {
		t.fn(t.name, t.size, t.size)
	}
}
