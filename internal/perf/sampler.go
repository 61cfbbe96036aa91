// Package perf samples presentation telemetry around pipeline runs: frames
// per second and the process's private memory.
package perf

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/procfs"

	"github.com/SyedDaiam9101/enhance-service/internal/metrics"
)

// Stats is one sample.
type Stats struct {
	FPS           float64
	MemoryUsageMB float64
}

// MemoryReader returns the process's private memory in bytes.
type MemoryReader func() (uint64, error)

// Sampler measures one monitoring window. It is safe for concurrent use but
// a window is meant to bracket a single run.
type Sampler struct {
	mu     sync.Mutex
	start  time.Time
	frames int

	now    func() time.Time
	memory MemoryReader
	gc     func()
}

// NewSampler returns a Sampler reading private dirty memory from procfs,
// or Go heap usage where procfs is unavailable.
func NewSampler() *Sampler {
	return &Sampler{
		now:    time.Now,
		memory: privateMemory,
		gc:     runtime.GC,
	}
}

// Start resets the window and asks the runtime for a collection so the
// memory sample reflects live data.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start = s.now()
	s.frames = 0
	s.gc()
}

// RecordFrame counts an additional frame in the current window.
func (s *Sampler) RecordFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
}

// Stop records the finishing frame and returns the window's stats. FPS is 0
// when no time has elapsed.
func (s *Sampler) Stop() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	elapsed := s.now().Sub(s.start).Seconds()

	var st Stats
	if elapsed > 0 {
		st.FPS = float64(s.frames) / elapsed
	}
	if b, err := s.memory(); err == nil {
		st.MemoryUsageMB = float64(b) / (1024 * 1024)
	}

	metrics.RecordSample(st.FPS, st.MemoryUsageMB)
	return st
}

func privateMemory() (uint64, error) {
	p, err := procfs.Self()
	if err == nil {
		rollup, err := p.ProcSMapsRollup()
		if err == nil {
			return rollup.PrivateDirty, nil
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse, nil
}
