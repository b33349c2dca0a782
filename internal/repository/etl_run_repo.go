package repository

import (
	"context"
	"time"

	"retailworks/internal/model"

	"gorm.io/gorm"
)

type EtlRunRepository interface {
	Start(ctx context.Context, run *model.EtlRun) error
	Finish(ctx context.Context, run *model.EtlRun) error
	Latest(ctx context.Context, process string, limit int) ([]model.EtlRun, error)
}

type etlRunRepo struct{ db *gorm.DB }

func NewEtlRunRepository(db *gorm.DB) EtlRunRepository { return &etlRunRepo{db: db} }

func (r *etlRunRepo) Start(ctx context.Context, run *model.EtlRun) error {
	run.Status = model.RunRunning
	run.StartedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(run).Error
}

// Finish runs outside the batch transaction so failures are still logged.
func (r *etlRunRepo) Finish(ctx context.Context, run *model.EtlRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	return r.db.WithContext(ctx).Model(run).Updates(map[string]any{
		"status":            run.Status,
		"records_processed": run.RecordsProcessed,
		"records_inserted":  run.RecordsInserted,
		"records_updated":   run.RecordsUpdated,
		"records_rejected":  run.RecordsRejected,
		"error_message":     run.ErrorMessage,
		"finished_at":       run.FinishedAt,
	}).Error
}

func (r *etlRunRepo) Latest(ctx context.Context, process string, limit int) ([]model.EtlRun, error) {
	var runs []model.EtlRun
	q := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if process != "" {
		q = q.Where("process_name = ?", process)
	}
	err := q.Find(&runs).Error
	return runs, err
}
