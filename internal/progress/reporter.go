package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Workers is the number of parallel workers (for display).
	Workers int

	// Course is the course identifier being archived (for display).
	Course string

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information while the worker
// pool drains the download queue.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	totalFiles int
	written    atomic.Int32
	skipped    atomic.Int32
	failed     atomic.Int32
	inProgress atomic.Int32
	bytes      atomic.Int64
	startTime  time.Time
	stopCh     chan struct{}
	stopped    bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress information for a queue of totalFiles
// download tasks.
func (r *Reporter) Start(totalFiles int) {
	r.mu.Lock()
	r.totalFiles = totalFiles
	r.startTime = time.Now()
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[canvasdl] Archiving course %s: %d files | Workers: %d\n",
		r.opts.Course, totalFiles, r.opts.Workers)

	go r.updateLoop()
}

// Stop stops the progress reporter.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// FileStarted marks a file as in progress.
func (r *Reporter) FileStarted() {
	r.inProgress.Add(1)
}

// FileWritten marks a file as written.
func (r *Reporter) FileWritten(size int64) {
	r.bytes.Add(size)
	r.written.Add(1)
	r.inProgress.Add(-1)
}

// FileSkipped marks a file as skipped by the extension filter.
func (r *Reporter) FileSkipped() {
	r.skipped.Add(1)
	r.inProgress.Add(-1)
}

// FileFailed marks a file as failed.
func (r *Reporter) FileFailed() {
	r.failed.Add(1)
	r.inProgress.Add(-1)
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	written := int(r.written.Load())
	skipped := int(r.skipped.Load())
	failed := int(r.failed.Load())
	inProgress := int(r.inProgress.Load())
	done := written + skipped + failed

	r.mu.Lock()
	total := r.totalFiles
	elapsed := time.Since(r.startTime)
	r.mu.Unlock()

	speed := float64(r.bytes.Load()) / elapsed.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[canvasdl] Progress: %d/%d files | %d written | %d skipped | %d failed | %d in-flight | %s/s    ",
		done, total, written, skipped, failed, inProgress, formatBytes(int64(speed)))
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	written := int(r.written.Load())
	skipped := int(r.skipped.Load())
	failed := int(r.failed.Load())

	r.mu.Lock()
	duration := time.Since(r.startTime)
	r.mu.Unlock()

	total := r.bytes.Load()
	avgSpeed := float64(total) / duration.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[canvasdl] Done: %d written | %d skipped | %d failed | %s total    \n",
		written, skipped, failed, formatBytes(total))
	fmt.Fprintf(r.opts.Output, "[canvasdl] Total time: %s | Average speed: %s/s\n",
		formatDuration(duration), formatBytes(int64(avgSpeed)))
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}
