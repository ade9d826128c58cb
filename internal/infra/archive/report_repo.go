package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// ArchivedReport is one archived report row.
type ArchivedReport struct {
	ID         int64     `db:"id"`
	Message    string    `db:"message"`
	Category   string    `db:"category"`
	Component  string    `db:"component"`
	URL        string    `db:"url"`
	UserAgent  string    `db:"user_agent"`
	OccurredAt time.Time `db:"occurred_at"`
	Delivered  bool      `db:"delivered"`
	Additional []byte    `db:"additional"`
	CreatedAt  time.Time `db:"created_at"`
}

// ReportRepo stores report batches.
type ReportRepo struct {
	db *DB
}

// NewReportRepo creates a report repository.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// SaveBatch archives a batch. delivered marks whether the batch
// reached the ingestion endpoint.
func (r *ReportRepo) SaveBatch(ctx context.Context, reports []*domain.Report, delivered bool) error {
	query := `
		INSERT INTO reports (message, category, component, url, user_agent, occurred_at, delivered, additional, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	for _, rep := range reports {
		additional, err := json.Marshal(rep.Additional)
		if err != nil {
			return fmt.Errorf("failed to marshal additional context: %w", err)
		}
		_, err = r.db.ExecContext(
			ctx,
			query,
			rep.Message,
			string(rep.Category()),
			rep.Component(),
			rep.URL,
			rep.UserAgent,
			rep.Timestamp,
			delivered,
			additional,
		)
		if err != nil {
			return fmt.Errorf("failed to archive report: %w", err)
		}
	}
	return nil
}

// Recent returns the most recently archived reports, newest first.
func (r *ReportRepo) Recent(ctx context.Context, limit int) ([]*ArchivedReport, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, message, category, component, url, user_agent, occurred_at, delivered, additional, created_at
		FROM reports
		ORDER BY occurred_at DESC
		LIMIT $1
	`

	var rows []ArchivedReport
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent reports: %w", err)
	}

	out := make([]*ArchivedReport, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

// CountByCategory returns archived report counts per category.
func (r *ReportRepo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM reports
		GROUP BY category
	`

	var rows []struct {
		Category string `db:"category"`
		Count    int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

// Prune removes archived reports older than the retention period.
func (r *ReportRepo) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM reports WHERE created_at < $1`
	res, err := r.db.ExecContext(ctx, query, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
