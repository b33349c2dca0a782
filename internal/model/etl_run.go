package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RunRunning = "RUNNING"
	RunSuccess = "SUCCESS"
	RunError   = "ERROR"
)

// EtlRun logs one batch execution with its counters.
type EtlRun struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BatchID          string     `gorm:"not null;uniqueIndex"`
	ProcessName      string     `gorm:"not null;index"`
	RangeStart       *time.Time `gorm:"type:date"`
	RangeEnd         *time.Time `gorm:"type:date"`
	Status           string     `gorm:"not null"`
	RecordsProcessed int        `gorm:"not null;default:0"`
	RecordsInserted  int        `gorm:"not null;default:0"`
	RecordsUpdated   int        `gorm:"not null;default:0"`
	RecordsRejected  int        `gorm:"not null;default:0"`
	ErrorMessage     *string
	StartedAt        time.Time `gorm:"not null"`
	FinishedAt       *time.Time
}

func (r *EtlRun) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
