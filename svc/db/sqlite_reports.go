package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"sealbin/pkg/domain"
)

func (s *SQLite) CreateReport(ctx context.Context, r *domain.Report) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	INSERT INTO paste_reports (paste_id, decryption_key, reason, created_at)
	VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(queryCtx, q, r.PasteID, r.DecryptionKey, r.Reason, r.CreatedAt)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db create report")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "last insert id")
	}
	r.ID = id
	return nil
}
func (s *SQLite) GetReport(ctx context.Context, id int64) (*domain.Report, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, paste_id, decryption_key, reason, created_at
	FROM paste_reports WHERE id = ?
	`
	var r domain.Report
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(
		&r.ID, &r.PasteID, &r.DecryptionKey, &r.Reason, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrReportNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db get report")
	}
	return &r, nil
}
func (s *SQLite) DeleteReport(ctx context.Context, id int64) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	result, err := s.db.ExecContext(queryCtx, `DELETE FROM paste_reports WHERE id = ?`, id)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db delete report")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// ListReports returns one page, newest first. The id tiebreak keeps the
// ordering stable when reports share a created_at second.
func (s *SQLite) ListReports(ctx context.Context, limit, offset int64) ([]domain.Report, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, paste_id, decryption_key, reason, created_at
	FROM paste_reports ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(queryCtx, q, limit, offset)
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db list reports")
	}
	defer rows.Close()
	reports := []domain.Report{}
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.PasteID, &r.DecryptionKey, &r.Reason, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan report")
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate reports")
	}
	return reports, nil
}
func (s *SQLite) CountReports(ctx context.Context) (int64, error) {
	if err := s.checkCircuit(); err != nil {
		return 0, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var count int64
	err := s.db.QueryRowContext(queryCtx, `SELECT COUNT(*) FROM paste_reports`).Scan(&count)
	s.recordError(err)
	if err != nil {
		return 0, errors.Wrap(err, "count reports")
	}
	return count, nil
}
