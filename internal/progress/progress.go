// Package progress reports batch progress at fixed work-unit intervals,
// decoupled from wall-clock time.
package progress

import "go.uber.org/zap"

// Reporter receives progress updates. Step is called once per completed
// work unit; implementations decide how often to surface them.
type Reporter interface {
	Step(done, total int)
}

// Nop discards all progress updates.
type Nop struct{}

func (Nop) Step(int, int) {}

// LogReporter logs progress through zap every Interval completed units,
// and always on the final unit.
type LogReporter struct {
	Name     string
	Interval int
	log      *zap.Logger
}

// NewLogReporter creates a reporter logging under the given task name.
// Interval defaults to 10.
func NewLogReporter(name string, interval int) *LogReporter {
	if interval <= 0 {
		interval = 10
	}
	return &LogReporter{
		Name:     name,
		Interval: interval,
		log:      zap.L().With(zap.String("task", name)),
	}
}

func (r *LogReporter) Step(done, total int) {
	if done%r.Interval != 0 && done != total {
		return
	}
	r.log.Info("progress",
		zap.Int("done", done),
		zap.Int("remain", total-done),
	)
}
