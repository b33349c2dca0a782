package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/dto"
	"retailworks/internal/metrics"
	"retailworks/internal/model"
	"retailworks/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type QualityService interface {
	// Run executes every check and reconciles the findings with stored issues.
	Run(ctx context.Context) (*dto.IssueReport, error)
	ListIssues(ctx context.Context, filter dto.QualityIssueFilter) ([]dto.QualityIssueResponse, error)
	Resolve(ctx context.Context, id uuid.UUID) (*dto.QualityIssueResponse, error)
}

type qualityService struct {
	repo repository.QualityRepository
}

func NewQualityService(repo repository.QualityRepository) QualityService {
	return &qualityService{repo: repo}
}

var severityRank = map[string]int{
	model.SeverityCritical: 4,
	model.SeverityHigh:     3,
	model.SeverityMedium:   2,
	model.SeverityLow:      1,
}

func issueFingerprint(f finding) string {
	h := sha256.Sum256([]byte(strings.Join([]string{f.table, f.column, f.issueType, f.recordRef}, "\x1f")))
	return hex.EncodeToString(h[:])
}

// ── Run ───────────────────────────────────────────────────────────────────────
//   1. Purge issues resolved by earlier runs
//   2. Execute every check
//   3. Findings that match an open issue refresh its last_seen_at
//   4. New findings become OPEN issues
//   5. Open issues no longer found are RESOLVED

func (s *qualityService) Run(ctx context.Context) (*dto.IssueReport, error) {
	started := time.Now()
	now := clock()
	report := &dto.IssueReport{RunAt: now.Format(time.RFC3339), BySeverity: map[string]int{}}
	var active []model.DataQualityIssue

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.DeleteResolvedTx(ctx, tx); err != nil {
			return fmt.Errorf("purge resolved issues: %w", err)
		}

		found := map[string]finding{}
		var order []string
		for _, c := range s.checks() {
			fs, err := c.run(ctx, tx)
			if err != nil {
				return fmt.Errorf("check %q: %w", c.name, err)
			}
			for _, f := range fs {
				fp := issueFingerprint(f)
				if _, dup := found[fp]; dup {
					continue
				}
				found[fp] = f
				order = append(order, fp)
			}
		}

		open, err := s.repo.ListOpenTx(ctx, tx)
		if err != nil {
			return fmt.Errorf("list open issues: %w", err)
		}
		known := make(map[string]bool, len(open))
		var touched, resolved []uuid.UUID
		for _, is := range open {
			if _, still := found[is.Fingerprint]; still && !known[is.Fingerprint] {
				known[is.Fingerprint] = true
				touched = append(touched, is.ID)
				is.LastSeenAt = now
				active = append(active, is)
				continue
			}
			resolved = append(resolved, is.ID)
		}

		var fresh []model.DataQualityIssue
		for _, fp := range order {
			if known[fp] {
				continue
			}
			f := found[fp]
			fresh = append(fresh, model.DataQualityIssue{
				Table:       f.table,
				ColumnName:  f.column,
				IssueType:   f.issueType,
				Description: f.description,
				Severity:    f.severity,
				Status:      model.IssueOpen,
				RecordRef:   f.recordRef,
				Fingerprint: fp,
				FirstSeenAt: now,
				LastSeenAt:  now,
			})
		}

		if err := s.repo.TouchTx(ctx, tx, touched, now); err != nil {
			return fmt.Errorf("refresh open issues: %w", err)
		}
		if err := s.repo.ResolveTx(ctx, tx, resolved, now); err != nil {
			return fmt.Errorf("resolve cleared issues: %w", err)
		}
		if err := s.repo.CreateTx(ctx, tx, fresh); err != nil {
			return fmt.Errorf("record new issues: %w", err)
		}

		active = append(active, fresh...)
		report.New = len(fresh)
		report.Resolved = len(resolved)
		return nil
	})
	if err != nil {
		metrics.BatchDuration.WithLabelValues("data_quality", "error").Observe(time.Since(started).Seconds())
		return nil, err
	}

	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] > severityRank[b.Severity]
		}
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		if a.IssueType != b.IssueType {
			return a.IssueType < b.IssueType
		}
		return a.RecordRef < b.RecordRef
	})

	for _, sev := range []string{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		report.BySeverity[sev] = 0
	}
	report.Issues = make([]dto.QualityIssueResponse, 0, len(active))
	for i := range active {
		report.BySeverity[active[i].Severity]++
		report.Issues = append(report.Issues, *issueToResponse(&active[i]))
	}
	report.Open = len(active)
	for sev, n := range report.BySeverity {
		metrics.OpenQualityIssues.WithLabelValues(sev).Set(float64(n))
	}
	metrics.BatchDuration.WithLabelValues("data_quality", "success").Observe(time.Since(started).Seconds())

	log.Info().Int("open", report.Open).Int("new", report.New).Int("resolved", report.Resolved).
		Msg("data quality run complete")
	return report, nil
}

func (s *qualityService) ListIssues(ctx context.Context, filter dto.QualityIssueFilter) ([]dto.QualityIssueResponse, error) {
	issues, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	out := make([]dto.QualityIssueResponse, 0, len(issues))
	for i := range issues {
		out = append(out, *issueToResponse(&issues[i]))
	}
	return out, nil
}

// Resolve closes an issue by hand. The next run reopens it as a new issue if
// the underlying record is still wrong.
func (s *qualityService) Resolve(ctx context.Context, id uuid.UUID) (*dto.QualityIssueResponse, error) {
	issue, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("data_quality_issue", "id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load issue: %w", err)
	}
	if issue.Status != model.IssueOpen {
		return nil, apierror.Validation("status", "issue %s is already %s", id, issue.Status)
	}
	now := clock()
	if err := s.repo.ResolveTx(ctx, s.repo.DB(), []uuid.UUID{id}, now); err != nil {
		return nil, fmt.Errorf("resolve issue: %w", err)
	}
	issue.Status = model.IssueResolved
	issue.ResolvedAt = &now
	return issueToResponse(issue), nil
}

func issueToResponse(i *model.DataQualityIssue) *dto.QualityIssueResponse {
	resp := &dto.QualityIssueResponse{
		ID:          i.ID.String(),
		Table:       i.Table,
		Column:      i.ColumnName,
		IssueType:   i.IssueType,
		Description: i.Description,
		Severity:    i.Severity,
		Status:      i.Status,
		RecordRef:   i.RecordRef,
		FirstSeenAt: i.FirstSeenAt.UTC().Format(time.RFC3339),
		LastSeenAt:  i.LastSeenAt.UTC().Format(time.RFC3339),
	}
	if i.ResolvedAt != nil {
		s := i.ResolvedAt.UTC().Format(time.RFC3339)
		resp.ResolvedAt = &s
	}
	return resp
}
