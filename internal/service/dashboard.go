package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
)

const dashboardListLimit = 10

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Stats       core.StatsRepository      // Required
	Users       core.UserRepository       // Required
	Enrollments core.EnrollmentRepository // Required
}

// DashboardService assembles the admin dashboard.
type DashboardService struct {
	stats       core.StatsRepository
	users       core.UserRepository
	enrollments core.EnrollmentRepository
}

// NewDashboardService constructs a new DashboardService.
func NewDashboardService(opts DashboardServiceOptions) *DashboardService {
	if opts.Stats == nil || opts.Users == nil || opts.Enrollments == nil {
		panic("stats, user and enrollment repositories are required")
	}
	return &DashboardService{stats: opts.Stats, users: opts.Users, enrollments: opts.Enrollments}
}

// Dashboard is everything the admin landing page shows.
type Dashboard struct {
	Stats             *model.DashboardStats
	RecentUsers       []*model.User
	RecentEnrollments []*model.EnrollmentView
}

// Load runs the three queries concurrently. The first failure cancels the rest.
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.stats.Dashboard(gctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		d.Stats = stats
		return nil
	})
	g.Go(func() error {
		users, err := s.users.ListRecent(gctx, dashboardListLimit)
		if err != nil {
			return fmt.Errorf("recent users: %w", err)
		}
		d.RecentUsers = users
		return nil
	})
	g.Go(func() error {
		enrollments, err := s.enrollments.ListRecent(gctx, dashboardListLimit)
		if err != nil {
			return fmt.Errorf("recent enrollments: %w", err)
		}
		d.RecentEnrollments = enrollments
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return &d, nil
}
