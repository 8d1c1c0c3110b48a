// Package worker runs the periodic background maintenance jobs: dumping
// an in-memory database to disk, flushing telemetry, autosaving the
// working session. Jobs are registered before Start and each runs on its
// own ticker.
package worker

import (
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic maintenance task. Run errors are logged, never
// fatal; the ticker keeps going.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func() error
}

// Manager owns the maintenance goroutines.
type Manager struct {
	mu      sync.Mutex
	jobs    []Job
	logger  *slog.Logger
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewManager creates a stopped manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Add registers a job. Jobs with a non-positive interval are rejected
// silently after a log line; adding while running takes effect on the
// next Start.
func (m *Manager) Add(job Job) {
	if job.Interval <= 0 || job.Run == nil {
		m.logger.Warn("Ignoring invalid maintenance job", "name", job.Name, "interval", job.Interval)
		return
	}
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
}

// Start launches one goroutine per registered job. Starting a running
// manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stop = make(chan struct{})

	for _, job := range m.jobs {
		m.wg.Add(1)
		go m.runJob(job, m.stop)
	}
	m.logger.Debug("Maintenance jobs started", "count", len(m.jobs))
}

func (m *Manager) runJob(job Job, stop chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			start := time.Now()
			if err := job.Run(); err != nil {
				m.logger.Error("Maintenance job failed", "name", job.Name, "error", err)
				continue
			}
			m.logger.Debug("Maintenance job ran", "name", job.Name, "duration", time.Since(start))
		}
	}
}

// Stop halts all job goroutines and waits for in-flight runs to finish.
// A final run of every job fires on the way out so shutdown never loses
// the last interval's work.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	jobs := make([]Job, len(m.jobs))
	copy(jobs, m.jobs)
	m.mu.Unlock()

	m.wg.Wait()

	for _, job := range jobs {
		if err := job.Run(); err != nil {
			m.logger.Error("Final maintenance run failed", "name", job.Name, "error", err)
		}
	}
}

// Running reports whether Start has been called without a matching Stop.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
