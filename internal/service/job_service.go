package service

import (
	"fmt"
	"log"
	"time"

	"carrental/internal/repository"
)

// attemptRetention is how long terminal confirmation attempt rows are kept
// before the nightly job purges them.
const attemptRetention = 30 * 24 * time.Hour

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// PurgeOldAttempts removes terminal confirmation attempt rows past the
// retention window.
func (s *JobService) PurgeOldAttempts() error {
	log.Println("Cron Job: purging old confirmation attempts...")

	n, err := s.Repo.DeleteAttemptsOlderThan(time.Now().UTC().Add(-attemptRetention))
	if err != nil {
		return fmt.Errorf("cron job: failed to purge confirmation attempts: %w", err)
	}
	if n == 0 {
		log.Println("Cron Job: no confirmation attempts past retention.")
		return nil
	}
	log.Printf("Cron Job: purged %d confirmation attempts.", n)
	return nil
}

// ReportExpiredReservations logs how many reservations have ended, as a
// cheap nightly fleet report.
func (s *JobService) ReportExpiredReservations() error {
	n, err := s.Repo.CountExpiredReservations()
	if err != nil {
		return fmt.Errorf("cron job: failed to count expired reservations: %w", err)
	}
	log.Printf("Cron Job: %d reservations have ended.", n)
	return nil
}
