// Package profiler logs frame rate and memory statistics at a fixed interval.
package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler counts frames and reads runtime memory statistics, logging one
// summary line per interval.
type Profiler struct {
	interval time.Duration

	frameCount    int
	intervalStart time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler that logs once per second.
//
// Returns:
//   - *Profiler: the new profiler
func NewProfiler() *Profiler {
	return NewProfilerWithInterval(time.Second)
}

// NewProfilerWithInterval creates a Profiler that logs once per interval.
//
// Parameters:
//   - interval: time between summary lines
//
// Returns:
//   - *Profiler: the new profiler
func NewProfilerWithInterval(interval time.Duration) *Profiler {
	return &Profiler{
		interval:      interval,
		intervalStart: time.Now(),
	}
}

// Tick counts a frame and logs the interval summary when due.
// The summary covers frame rate, live heap, allocation rate, GC pauses, and
// the memory obtained from the OS.
//
// Returns:
//   - bool: true if a summary was logged this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.intervalStart)
	if elapsed < p.interval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	fps := float64(p.frameCount) / elapsed.Seconds()
	heapMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()
	gcCount := p.memStats.NumGC
	lastPauseUs, maxPauseUs := p.pauseStats(gcCount)

	log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		fps, heapMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.frameCount = 0
	p.intervalStart = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// pauseStats reports the most recent GC pause and the longest pause since the
// previous summary, in microseconds. PauseNs is a circular buffer of the last
// 256 pauses, so older pauses fall out of the scan.
func (p *Profiler) pauseStats(gcCount uint32) (lastPauseUs, maxPauseUs uint64) {
	if gcCount == 0 {
		return 0, 0
	}
	lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}
	return lastPauseUs, maxPauseUs
}
