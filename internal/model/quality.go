package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	IssueOpen     = "OPEN"
	IssueResolved = "RESOLVED"

	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// DataQualityIssue is one finding of a data-quality run. Fingerprint identifies
// the same finding across runs so an active issue keeps its identity.
type DataQualityIssue struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Table       string    `gorm:"column:table_name;not null"`
	ColumnName  string    `gorm:"not null"`
	IssueType   string    `gorm:"not null;index"`
	Description string    `gorm:"not null"`
	Severity    string    `gorm:"not null"`
	Status      string    `gorm:"not null;index;default:'OPEN'"`
	RecordRef   string
	Fingerprint string    `gorm:"size:64;not null;index"`
	FirstSeenAt time.Time `gorm:"not null"`
	LastSeenAt  time.Time `gorm:"not null"`
	ResolvedAt  *time.Time
}

func (i *DataQualityIssue) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
