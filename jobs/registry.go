package jobs

import (
	"sync"
	"time"

	"github.com/use-agent/courtsched/models"
)

// Registry is an in-memory store of jobs so callers can poll status. It is
// safe for concurrent use. Finished jobs are evicted once they are older
// than the retention period; unfinished jobs are never evicted.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*models.Job
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewRegistry starts a registry whose sweeper runs every sweep interval.
func NewRegistry(retention, sweep time.Duration) *Registry {
	if retention <= 0 {
		retention = time.Hour
	}
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	r := &Registry{
		jobs:      make(map[string]*models.Job),
		retention: retention,
		stop:      make(chan struct{}),
	}
	go r.cleanupLoop(sweep)
	return r
}

// Put stores a copy of job.
func (r *Registry) Put(job *models.Job) {
	cp := *job
	r.mu.Lock()
	r.jobs[job.ID] = &cp
	r.mu.Unlock()
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

// Advance moves a job to status. Transitions that would go backwards or
// leave a terminal state are ignored and reported as false.
func (r *Registry) Advance(id string, status models.JobStatus, results []models.CaseResult, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || !j.Status.CanAdvance(status) {
		return false
	}
	j.Status = status
	j.UpdatedAt = time.Now()
	if results != nil {
		j.Results = results
	}
	j.Error = errMsg
	return true
}

// Active counts jobs that have not reached a terminal status.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, j := range r.jobs {
		if !j.Status.Terminal() {
			n++
		}
	}
	return n
}

// Close stops the sweeper.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.evict(now)
		}
	}
}

func (r *Registry) evict(now time.Time) {
	cutoff := now.Add(-r.retention)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		if j.Status.Terminal() && j.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
