package repository

import (
	"context"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckRow is one offending record returned by a data-quality query.
// Queries alias their columns to record_ref and detail.
type CheckRow struct {
	RecordRef string
	Detail    string
}

type QualityRepository interface {
	// RunCheckTx executes a read-only detection query.
	RunCheckTx(ctx context.Context, tx *gorm.DB, query string, args ...any) ([]CheckRow, error)
	DeleteResolvedTx(ctx context.Context, tx *gorm.DB) (int64, error)
	ListOpenTx(ctx context.Context, tx *gorm.DB) ([]model.DataQualityIssue, error)
	CreateTx(ctx context.Context, tx *gorm.DB, issues []model.DataQualityIssue) error
	TouchTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ResolveTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	List(ctx context.Context, filter dto.QualityIssueFilter) ([]model.DataQualityIssue, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.DataQualityIssue, error)
	DB() *gorm.DB
}

type qualityRepo struct{ db *gorm.DB }

func NewQualityRepository(db *gorm.DB) QualityRepository { return &qualityRepo{db: db} }

func (r *qualityRepo) DB() *gorm.DB { return r.db }

func (r *qualityRepo) RunCheckTx(ctx context.Context, tx *gorm.DB, query string, args ...any) ([]CheckRow, error) {
	var rows []CheckRow
	err := tx.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}

func (r *qualityRepo) DeleteResolvedTx(ctx context.Context, tx *gorm.DB) (int64, error) {
	res := tx.WithContext(ctx).Where("status = ?", model.IssueResolved).Delete(&model.DataQualityIssue{})
	return res.RowsAffected, res.Error
}

func (r *qualityRepo) ListOpenTx(ctx context.Context, tx *gorm.DB) ([]model.DataQualityIssue, error) {
	var issues []model.DataQualityIssue
	err := tx.WithContext(ctx).Where("status = ?", model.IssueOpen).Find(&issues).Error
	return issues, err
}

func (r *qualityRepo) CreateTx(ctx context.Context, tx *gorm.DB, issues []model.DataQualityIssue) error {
	if len(issues) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(issues, 200).Error
}

func (r *qualityRepo) TouchTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Model(&model.DataQualityIssue{}).
		Where("id IN ?", ids).Update("last_seen_at", at).Error
}

func (r *qualityRepo) ResolveTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Model(&model.DataQualityIssue{}).
		Where("id IN ? AND status = ?", ids, model.IssueOpen).
		Updates(map[string]any{"status": model.IssueResolved, "resolved_at": at}).Error
}

func (r *qualityRepo) List(ctx context.Context, filter dto.QualityIssueFilter) ([]model.DataQualityIssue, error) {
	var issues []model.DataQualityIssue
	q := r.db.WithContext(ctx).Model(&model.DataQualityIssue{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	err := q.Order("table_name ASC, issue_type ASC, record_ref ASC").Find(&issues).Error
	return issues, err
}

func (r *qualityRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DataQualityIssue, error) {
	var issue model.DataQualityIssue
	err := r.db.WithContext(ctx).First(&issue, "id = ?", id).Error
	return &issue, err
}
