package services

import (
	"context"
	"log"
	"time"

	"medmind/internal/database"
	"medmind/internal/repository"
)

// SweepService periodically marks overdue pending doses as missed. A dose is
// overdue once its scheduled time is more than the grace period in the past;
// the grace period gives users room to log a late dose before it counts
// against their streak.
type SweepService struct {
	db       *database.DB
	logRepo  *repository.DoseLogRepository
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

// NewSweepService creates a sweep service. now is injectable for tests.
func NewSweepService(db *database.DB, interval, grace time.Duration, now func() time.Time) *SweepService {
	if now == nil {
		now = time.Now
	}
	return &SweepService{
		db:       db,
		logRepo:  repository.NewDoseLogRepository(db),
		interval: interval,
		grace:    grace,
		now:      now,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
// Intended to run as a goroutine alongside the HTTP server.
func (s *SweepService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(); err != nil {
				log.Printf("Overdue dose sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce marks every pending or current dose scheduled before
// now - grace as missed, returning the number of logs swept.
func (s *SweepService) SweepOnce() (int64, error) {
	cutoff := s.now().Add(-s.grace)

	swept, err := s.logRepo.MarkOverdueMissed(cutoff)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		log.Printf("Marked %d overdue doses as missed", swept)
	}
	return swept, nil
}
