package service

import (
	"context"
	"fmt"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/metrics"
	"retailworks/internal/model"
	"retailworks/internal/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog/log"
)

const ProcessNightlyLoad = "nightly_load"

type EtlService interface {
	// Run executes the full batch for [start, end]: calendar coverage,
	// dimension sync, fact reload and a data-quality pass.
	Run(ctx context.Context, start, end time.Time) (*dto.EtlRunResponse, error)
	ListRuns(ctx context.Context, limit int) ([]dto.EtlRunLogResponse, error)
}

type etlService struct {
	calendar   CalendarService
	dimensions DimensionService
	facts      FactService
	quality    QualityService
	runs       repository.EtlRunRepository
	ids        *snowflake.Node
}

func NewEtlService(
	calendar CalendarService,
	dimensions DimensionService,
	facts FactService,
	quality QualityService,
	runs repository.EtlRunRepository,
	ids *snowflake.Node,
) EtlService {
	return &etlService{
		calendar:   calendar,
		dimensions: dimensions,
		facts:      facts,
		quality:    quality,
		runs:       runs,
		ids:        ids,
	}
}

func (s *etlService) Run(ctx context.Context, start, end time.Time) (*dto.EtlRunResponse, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}
	run := &model.EtlRun{
		BatchID:     "ETL-" + s.ids.Generate().String(),
		ProcessName: ProcessNightlyLoad,
		RangeStart:  &start,
		RangeEnd:    &end,
	}
	if err := s.runs.Start(ctx, run); err != nil {
		return nil, fmt.Errorf("log batch start: %w", err)
	}
	logger := log.With().Str("batch_id", run.BatchID).Logger()
	logger.Info().Str("start", start.Format(time.DateOnly)).Str("end", end.Format(time.DateOnly)).Msg("batch started")
	began := time.Now()

	resp, err := s.execute(ctx, run, start, end)
	run.Status = model.RunSuccess
	if err != nil {
		run.Status = model.RunError
		msg := err.Error()
		run.ErrorMessage = &msg
	}
	if ferr := s.runs.Finish(context.WithoutCancel(ctx), run); ferr != nil {
		logger.Error().Err(ferr).Msg("failed to log batch completion")
	}
	metrics.BatchDuration.WithLabelValues(ProcessNightlyLoad, run.Status).Observe(time.Since(began).Seconds())

	if err != nil {
		logger.Error().Err(err).Msg("batch failed")
		return nil, err
	}
	resp.Status = run.Status
	logger.Info().Int("facts", resp.FactsLoaded).Int("issues", resp.IssuesFound).Msg("batch finished")
	return resp, nil
}

func (s *etlService) execute(ctx context.Context, run *model.EtlRun, start, end time.Time) (*dto.EtlRunResponse, error) {
	if err := s.calendar.EnsureRange(ctx, start, end); err != nil {
		return nil, fmt.Errorf("date dimension: %w", err)
	}

	dims, err := s.dimensions.SyncAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dimension sync: %w", err)
	}
	for _, d := range dims {
		run.RecordsProcessed += d.Processed
		run.RecordsInserted += d.Inserted
		run.RecordsUpdated += d.Versioned
		run.RecordsRejected += d.Rejected
	}

	facts, err := s.facts.LoadFacts(ctx, start, end, run.BatchID)
	if err != nil {
		return nil, fmt.Errorf("fact load: %w", err)
	}
	run.RecordsInserted += facts.Total()
	run.RecordsRejected += facts.Skipped

	report, err := s.quality.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("data quality: %w", err)
	}

	return &dto.EtlRunResponse{
		BatchID:     run.BatchID,
		Dimensions:  dims,
		Facts:       facts,
		FactsLoaded: facts.Total(),
		IssuesFound: report.Open,
	}, nil
}

func (s *etlService) ListRuns(ctx context.Context, limit int) ([]dto.EtlRunLogResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	runs, err := s.runs.Latest(ctx, "", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]dto.EtlRunLogResponse, 0, len(runs))
	for _, r := range runs {
		item := dto.EtlRunLogResponse{
			BatchID:          r.BatchID,
			ProcessName:      r.ProcessName,
			Status:           r.Status,
			RecordsProcessed: r.RecordsProcessed,
			RecordsInserted:  r.RecordsInserted,
			RecordsUpdated:   r.RecordsUpdated,
			RecordsRejected:  r.RecordsRejected,
			ErrorMessage:     r.ErrorMessage,
			StartedAt:        r.StartedAt.UTC().Format(time.RFC3339),
		}
		if r.RangeStart != nil {
			d := r.RangeStart.Format(time.DateOnly)
			item.RangeStart = &d
		}
		if r.RangeEnd != nil {
			d := r.RangeEnd.Format(time.DateOnly)
			item.RangeEnd = &d
		}
		if r.FinishedAt != nil {
			f := r.FinishedAt.UTC().Format(time.RFC3339)
			item.FinishedAt = &f
		}
		out = append(out, item)
	}
	return out, nil
}
