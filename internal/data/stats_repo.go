package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
)

var _ core.StatsRepository = (*StatsRepo)(nil)

// StatsRepo computes back-office counters in a single round trip.
type StatsRepo struct {
	DB *sql.DB
}

// NewStatsRepo creates a new StatsRepo.
func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{DB: db}
}

// Dashboard returns totals for the admin dashboard.
func (r *StatsRepo) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var s model.DashboardStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM children),
			(SELECT count(*) FROM camps),
			(SELECT count(*) FROM camps WHERE open),
			(SELECT count(*) FROM enrollments WHERE status <> 'cancelled'),
			(SELECT count(*) FROM enrollments WHERE status = 'pending')`).
		Scan(&s.Users, &s.Children, &s.Camps, &s.OpenCamps, &s.Enrollments, &s.Pending)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &s, nil
}
