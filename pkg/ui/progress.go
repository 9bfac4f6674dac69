package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// RunTracker keeps track of a multi-keyword expansion run. It is safe
// for concurrent use by parallel workers.
type RunTracker struct {
	mu             sync.Mutex
	totalKeywords  int
	doneKeywords   int
	totalQuestions int
	totalRequests  int
	failedKeywords int
	startTime      time.Time
}

// NewRunTracker creates a tracker for a run over total keywords.
func NewRunTracker(total int) *RunTracker {
	return &RunTracker{
		totalKeywords: total,
		startTime:     time.Now(),
	}
}

// KeywordDone records one finished root keyword and its totals.
func (rt *RunTracker) KeywordDone(questions, requests int, failed bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.doneKeywords++
	rt.totalQuestions += questions
	rt.totalRequests += requests
	if failed {
		rt.failedKeywords++
	}
}

// GetProgress returns a formatted progress bar over keywords.
func (rt *RunTracker) GetProgress() string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	const width = 20
	progress := 0.0
	if rt.totalKeywords > 0 {
		progress = float64(rt.doneKeywords) / float64(rt.totalKeywords)
	}
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, rt.doneKeywords, rt.totalKeywords)
}

// GetElapsedTime returns the elapsed time since tracking started.
func (rt *RunTracker) GetElapsedTime() time.Duration {
	return time.Since(rt.startTime)
}

// PrintProgress prints the current run status on one line.
func (rt *RunTracker) PrintProgress(current string) {
	if quiet {
		return
	}
	rt.mu.Lock()
	questions := rt.totalQuestions
	requests := rt.totalRequests
	rt.mu.Unlock()

	fmt.Printf("\r%s %s | Questions: %d | Requests: %d | %s",
		Magenta("[EXPANDING]"),
		rt.GetProgress(),
		questions,
		requests,
		Dim(current))
}

// PrintSummary prints the final run totals.
func (rt *RunTracker) PrintSummary() {
	if quiet {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	fmt.Println()
	fmt.Printf("%s Keywords: %d | Questions: %d | Requests: %d | Elapsed: %s\n",
		Green("[DONE]"),
		rt.doneKeywords,
		rt.totalQuestions,
		rt.totalRequests,
		time.Since(rt.startTime).Round(time.Second))
	if rt.failedKeywords > 0 {
		fmt.Println(Yellow(fmt.Sprintf("%d keyword(s) finished with errors", rt.failedKeywords)))
	}
}

// FailedCount returns how many keywords finished with errors.
func (rt *RunTracker) FailedCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.failedKeywords
}
