package svc

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"sealbin/cfg"
	"sealbin/metrics"
	"sealbin/pkg/domain"
	"sealbin/svc/db"
	"sealbin/svc/util"
)

const maxPerPage = 100

// Report owns the moderation flags. It deliberately does not check that the
// reported paste exists: reports outlive paste deletion and expiry so the
// moderation trail survives.
type Report struct {
	db  *db.SQLite
	cfg *cfg.Cfg
}

func NewReport(sqlDB *db.SQLite, c *cfg.Cfg) *Report {
	if sqlDB == nil || c == nil {
		panic("report service: nil dependency (sqlDB or cfg)")
	}
	return &Report{db: sqlDB, cfg: c}
}

// Create files a report. The reason is stored trimmed; the decryption key
// is stored verbatim for the moderator.
func (r *Report) Create(ctx context.Context, pasteID, decryptionKey, reason string) (*domain.Report, error) {
	if !r.cfg.ReportsEnabled {
		return nil, domain.ErrReportingDisabled
	}
	if strings.TrimSpace(decryptionKey) == "" {
		return nil, domain.ErrEmptyDecryptKey
	}
	trimmedReason := strings.TrimSpace(reason)
	if len(trimmedReason) < r.cfg.ReportMinLength {
		return nil, domain.ErrReasonTooShort
	}
	report := &domain.Report{
		PasteID:       pasteID,
		DecryptionKey: decryptionKey,
		Reason:        trimmedReason,
		CreatedAt:     time.Now().Unix(),
	}
	if err := r.db.CreateReport(ctx, report); err != nil {
		return nil, errors.Wrap(err, "create report")
	}
	metrics.ReportCreated.Inc()
	util.Info().Str("paste_id", pasteID).Int64("report_id", report.ID).Msg("paste reported")
	return report, nil
}

// List pages through reports newest-first. pages = ceil(total/perPage);
// with zero reports every page is empty and pages is 0.
func (r *Report) List(ctx context.Context, page, perPage int64) (*domain.ReportPage, error) {
	if page < 1 || perPage < 1 || perPage > maxPerPage {
		return nil, domain.ErrInvalidPage
	}
	total, err := r.db.CountReports(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count reports")
	}
	offset := (page - 1) * perPage
	reports, err := r.db.ListReports(ctx, perPage, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	return &domain.ReportPage{
		Total:   total,
		Page:    page,
		Pages:   (total + perPage - 1) / perPage,
		Reports: reports,
	}, nil
}

func (r *Report) Get(ctx context.Context, id int64) (*domain.Report, error) {
	return r.db.GetReport(ctx, id)
}

func (r *Report) Delete(ctx context.Context, id int64) error {
	if err := r.db.DeleteReport(ctx, id); err != nil {
		return err
	}
	metrics.ReportDeleted.Inc()
	util.Info().Int64("report_id", id).Msg("report deleted by admin")
	return nil
}
