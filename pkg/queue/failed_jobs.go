package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

// FailedJob is a job that exhausted its retries.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"jobType"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null" json:"failedAt"`
}

func (FailedJob) TableName() string { return "failed_jobs" }

func (m *Manager) recordFailure(ctx context.Context, jobType string, payload []byte, cause error, attempts int) {
	rec := FailedJob{
		JobType:  jobType,
		Payload:  string(payload),
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}
	if cause != nil {
		rec.Error = cause.Error()
	}

	if m.opts.DB != nil {
		err := m.opts.DB.WithContext(context.WithoutCancel(ctx)).Create(&rec).Error
		if err == nil {
			return
		}
		logger.Error("queue: persist failed job", "type", jobType, "error", err)
	}

	m.mu.Lock()
	m.failed = append(m.failed, rec)
	m.mu.Unlock()
}

// FailedJobs lists exhausted jobs, newest first when stored in the database.
func (m *Manager) FailedJobs(ctx context.Context) ([]FailedJob, error) {
	if m.opts.DB != nil {
		var out []FailedJob
		err := m.opts.DB.WithContext(ctx).Order("id DESC").Find(&out).Error
		return out, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FailedJob(nil), m.failed...), nil
}

// Retry re-queues a persisted failed job and removes its record.
func (m *Manager) Retry(ctx context.Context, id uint) error {
	if m.opts.DB == nil {
		return fmt.Errorf("queue: retry needs a database")
	}
	var rec FailedJob
	if err := m.opts.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		return fmt.Errorf("queue: failed job %d: %w", id, err)
	}
	raw, err := json.Marshal(envelope{Type: rec.JobType, Payload: json.RawMessage(rec.Payload), QueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := m.driver.Push(ctx, raw); err != nil {
		return err
	}
	return m.opts.DB.WithContext(ctx).Delete(&rec).Error
}
