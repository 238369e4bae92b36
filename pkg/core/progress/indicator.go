// Package progress drives the decorative progress indicator shown while a
// slow agent call is in flight. Ticks come from a fixed local timer and say
// nothing about real backend progress.
package progress

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the tick period used when none is given.
const DefaultInterval = 2 * time.Second

// DefaultStages are cycled through in order; the last one repeats.
var DefaultStages = []string{
	"正在检索年报内容",
	"正在调用分析工具",
	"正在整理结构化结果",
	"正在生成可视化",
}

// Tick is delivered to the callback on every timer fire.
type Tick struct {
	Step    int
	Stage   string
	Elapsed time.Duration
}

// Indicator is a running progress ticker.
type Indicator struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start calls fn every interval until ctx is done or Stop is called.
// fn runs on the indicator goroutine.
func Start(ctx context.Context, interval time.Duration, stages []string, fn func(Tick)) *Indicator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if len(stages) == 0 {
		stages = DefaultStages
	}
	ctx, cancel := context.WithCancel(ctx)
	ind := &Indicator{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(ind.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		start := time.Now()
		step := 0
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				stage := stages[min(step, len(stages)-1)]
				if fn != nil {
					fn(Tick{Step: step, Stage: stage, Elapsed: now.Sub(start)})
				}
				step++
			}
		}
	}()
	return ind
}

// Stop cancels the indicator and waits for its goroutine to exit. It is safe
// to call more than once.
func (i *Indicator) Stop() {
	i.once.Do(i.cancel)
	<-i.done
}

// Done is closed once the indicator has stopped.
func (i *Indicator) Done() <-chan struct{} {
	return i.done
}
