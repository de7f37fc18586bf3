package queue

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// FailedJobRecord is the persisted form of a FailedJob. The table is created
// by the failed_jobs migration.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey"`
	JobName  string    `gorm:"size:100;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

var failedJobDB *gorm.DB

// UseDB persists failed jobs to db in addition to memory.
func UseDB(db *gorm.DB) { failedJobDB = db }

func (m *Manager) persistFailed(ctx context.Context, f FailedJob) {
	m.mu.Lock()
	m.failed = append(m.failed, f)
	m.mu.Unlock()

	if failedJobDB == nil {
		return
	}
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	rec := FailedJobRecord{
		JobName:  f.Name,
		Payload:  string(f.Payload),
		Error:    msg,
		Attempts: f.Attempts,
		FailedAt: f.FailedAt,
	}
	if err := failedJobDB.WithContext(ctx).Create(&rec).Error; err != nil {
		logger.Error("queue: persist failed job", "name", f.Name, "error", err)
	}
}
