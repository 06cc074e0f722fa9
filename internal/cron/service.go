// Package cron runs persisted scheduled jobs. Cron expressions go through
// robfig/cron; "every" and "at" schedules are polled once a second.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/spf13/afero"
)

// Handler runs one job and returns a short result for the log.
type Handler func(ctx context.Context, job CronJob) (string, error)

type Service struct {
	fs        afero.Fs
	storePath string

	mu       sync.Mutex
	jobs     []CronJob
	OnJob    Handler
	cron     *rcron.Cron
	entryMap map[string]rcron.EntryID // job ID -> cron entry ID
	runCtx   context.Context
	cancel   context.CancelFunc
	stopCh   chan struct{}
}

func NewService(fs afero.Fs, storePath string) *Service {
	return &Service{
		fs:        fs,
		storePath: storePath,
		entryMap:  make(map[string]rcron.EntryID),
		runCtx:    context.Background(),
	}
}

// Start loads persisted jobs and begins scheduling. Cancelling ctx has the
// same effect as Stop.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	stopCh := make(chan struct{})

	if err := s.load(); err != nil {
		log.Printf("[cron] warning: failed to load jobs: %v", err)
	}

	s.mu.Lock()
	s.runCtx = runCtx
	s.cancel = cancel
	s.stopCh = stopCh
	s.cron = rcron.New(rcron.WithParser(exprParser))
	for i := range s.jobs {
		if s.jobs[i].Enabled && s.jobs[i].Schedule.Kind == KindCron {
			s.registerJob(&s.jobs[i])
		}
	}
	count := len(s.jobs)
	s.cron.Start()
	s.mu.Unlock()

	log.Printf("[cron] started with %d jobs", count)

	go s.tickLoop(runCtx)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopCh:
		}
	}()

	return nil
}

// registerJob must be called with s.mu held.
func (s *Service) registerJob(job *CronJob) {
	jobCopy := *job
	ctx := s.runCtx
	id, err := s.cron.AddFunc(job.Schedule.Expr, func() {
		s.executeJob(ctx, jobCopy)
	})
	if err != nil {
		log.Printf("[cron] failed to register job %s (%s): %v", job.Name, job.Schedule.Expr, err)
		return
	}
	s.entryMap[job.ID] = id
}

// unregisterJob must be called with s.mu held.
func (s *Service) unregisterJob(id string) {
	if entryID, ok := s.entryMap[id]; ok {
		if s.cron != nil {
			s.cron.Remove(entryID)
		}
		delete(s.entryMap, id)
	}
}

func (s *Service) executeJob(ctx context.Context, job CronJob) {
	log.Printf("[cron] executing job %s (%s)", job.Name, job.ID)

	s.mu.Lock()
	handler := s.OnJob
	s.mu.Unlock()
	if handler == nil {
		log.Printf("[cron] no OnJob handler set")
		return
	}

	result, err := handler(ctx, job)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobs {
		if s.jobs[i].ID != job.ID {
			continue
		}
		state := &s.jobs[i].State
		state.LastRunAtMs = time.Now().UnixMilli()
		if err != nil {
			state.LastStatus = StatusError
			state.LastError = err.Error()
			log.Printf("[cron] job %s error: %v", job.Name, err)
		} else {
			state.LastStatus = StatusOK
			state.LastError = ""
			log.Printf("[cron] job %s result: %s", job.Name, truncate(result, 100))
		}

		if s.jobs[i].DeleteAfterRun {
			s.unregisterJob(job.ID)
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		}
		break
	}

	if err := s.save(); err != nil {
		log.Printf("[cron] save jobs: %v", err)
	}
}

func (s *Service) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, job := range s.dueJobs(time.Now().UnixMilli()) {
				if ctx.Err() != nil {
					return
				}
				s.executeJob(ctx, job)
			}
		case <-ctx.Done():
			return
		}
	}
}

// dueJobs collects the interval and one-shot jobs that should fire at now.
// Their state is advanced before they run so a slow job is not picked up
// twice.
func (s *Service) dueJobs(now int64) []CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []CronJob
	for i := range s.jobs {
		job := &s.jobs[i]
		if !job.Enabled {
			continue
		}
		switch job.Schedule.Kind {
		case KindEvery:
			if job.Schedule.EveryMs > 0 && now >= job.State.LastRunAtMs+job.Schedule.EveryMs {
				job.State.LastRunAtMs = now
				due = append(due, *job)
			}
		case KindAt:
			if job.Schedule.AtMs > 0 && now >= job.Schedule.AtMs {
				job.Enabled = false
				due = append(due, *job)
			}
		}
	}
	return due
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopCh := s.stopCh
	c := s.cron
	s.cancel = nil
	s.stopCh = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stopCh != nil {
		close(stopCh)
	}

	if c != nil {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			log.Printf("[cron] stop timeout waiting for running jobs")
		}
	}
	log.Printf("[cron] stopped")
}

func (s *Service) AddJob(name string, schedule Schedule, payload Payload) (*CronJob, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job := NewCronJob(name, schedule, payload)
	s.jobs = append(s.jobs, job)

	if job.Schedule.Kind == KindCron && s.cron != nil {
		s.registerJob(&s.jobs[len(s.jobs)-1])
	}

	if err := s.save(); err != nil {
		return nil, fmt.Errorf("save jobs: %w", err)
	}

	return &job, nil
}

func (s *Service) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, job := range s.jobs {
		if job.ID == id {
			s.unregisterJob(id)
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			if err := s.save(); err != nil {
				log.Printf("[cron] save jobs: %v", err)
			}
			return true
		}
	}
	return false
}

func (s *Service) ListJobs() []CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]CronJob, len(s.jobs))
	copy(result, s.jobs)
	return result
}

func (s *Service) EnableJob(id string, enabled bool) (*CronJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobs {
		if s.jobs[i].ID != id {
			continue
		}
		s.jobs[i].Enabled = enabled
		if s.jobs[i].Schedule.Kind == KindCron && s.cron != nil {
			if enabled {
				if _, ok := s.entryMap[id]; !ok {
					s.registerJob(&s.jobs[i])
				}
			} else {
				s.unregisterJob(id)
			}
		}
		if err := s.save(); err != nil {
			log.Printf("[cron] save jobs: %v", err)
		}
		job := s.jobs[i]
		return &job, nil
	}
	return nil, fmt.Errorf("job %s not found", id)
}

func (s *Service) load() error {
	data, err := afero.ReadFile(s.fs, s.storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var jobs []CronJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("parse %s: %w", s.storePath, err)
	}
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
	return nil
}

// save writes the job list through a temp file; callers hold s.mu.
func (s *Service) save() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.storePath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.storePath + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.storePath)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
