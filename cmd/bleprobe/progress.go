package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter displays progress messages with elapsed or remaining time.
//
// Usage:
//
//	p := NewProgressPrinter(...)
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use. Start may be called at most once; Stop is
// safe to call multiple times but the instance cannot be restarted.
type ProgressPrinter struct {
	prefix     string
	phase      atomic.Value        // current phase name
	stopPhases map[string]struct{} // phases that trigger a graceful shutdown
	startTime  time.Time
	ticker     atomic.Pointer[time.Ticker]
	stopChan   chan struct{}
	done       chan struct{}
	started    atomic.Bool
	countUp    bool
	duration   time.Duration // for countdown mode
}

// NewProgressPrinter creates a progress printer that counts up (shows elapsed
// time). stopPhases are phase names that trigger automatic cleanup when set
// via Callback.
func NewProgressPrinter(prefix string, phase string, stopPhases ...string) *ProgressPrinter {
	p := newPrinter(prefix, phase, stopPhases)
	p.countUp = true
	return p
}

// NewCountdownProgressPrinter creates a progress printer that counts down
// from the given duration.
func NewCountdownProgressPrinter(prefix string, phase string, duration time.Duration, stopPhases ...string) *ProgressPrinter {
	p := newPrinter(prefix, phase, stopPhases)
	p.duration = duration
	return p
}

func newPrinter(prefix string, phase string, stopPhases []string) *ProgressPrinter {
	stopSet := make(map[string]struct{})
	for _, s := range stopPhases {
		stopSet[s] = struct{}{}
	}
	p := &ProgressPrinter{
		prefix:     prefix,
		stopPhases: stopSet,
	}
	p.phase.Store(phase)
	return p
}

// Start begins displaying progress updates in a background goroutine.
// Panics if called more than once on the same instance.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}

	p.done = make(chan struct{})
	p.stopChan = make(chan struct{})
	p.startTime = time.Now()
	ticker := time.NewTicker(progressUpdateInterval)
	p.ticker.Store(ticker)

	initialPhase := p.phase.Load().(string)
	fmt.Printf("\r%s (%s...)   ", p.prefix, initialPhase)

	go p.loop(ticker)
}

func (p *ProgressPrinter) loop(ticker *time.Ticker) {
	defer close(p.done)

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			currentPhase := p.phase.Load().(string)
			if _, isStopPhase := p.stopPhases[currentPhase]; isStopPhase {
				return
			}

			elapsed := time.Since(p.startTime)
			var seconds int
			if p.countUp {
				seconds = int(elapsed.Seconds())
			} else {
				remaining := p.duration - elapsed
				if remaining > 0 {
					// Round to the nearest second
					seconds = int(remaining.Seconds() + 0.5)
				}
			}

			if seconds > 0 {
				fmt.Printf("\r%s (%s %ds)   ", p.prefix, currentPhase, seconds)
			} else {
				fmt.Printf("\r%s (%s...)   ", p.prefix, currentPhase)
			}
		}
	}
}

// Callback returns a progress callback that updates the phase. If the new
// phase is a stop phase, Stop is called automatically. Safe to call from
// multiple goroutines.
func (p *ProgressPrinter) Callback() func(phase string) {
	return func(phase string) {
		p.phase.Store(phase)
		if _, isStopPhase := p.stopPhases[phase]; isStopPhase {
			p.Stop()
		}
	}
}

// Stop stops the progress display and clears the line. Safe to call multiple
// times and from multiple goroutines.
func (p *ProgressPrinter) Stop() {
	ticker := p.ticker.Swap(nil)
	if ticker == nil {
		return // Already stopped
	}

	ticker.Stop()
	close(p.stopChan)
	<-p.done

	fmt.Print(clearLineSequence)
}
