package core

import (
	"context"

	"github.com/campiestivi/campi/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UserRepository stores site accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// EnsureExternal returns the account for email, creating a passwordless one
	// for identities that signed in through an external provider.
	EnsureExternal(ctx context.Context, user *model.User) (*model.User, error)
	ListRecent(ctx context.Context, limit int) ([]*model.User, error)
}

// AdminRepository manages the admin-membership set. Reads for authorization
// go through ports.MembershipStore instead.
type AdminRepository interface {
	Grant(ctx context.Context, userID string) error
	Revoke(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context) ([]*model.User, error)
}

// CampListOptions filters camp listings.
type CampListOptions struct {
	OnlyOpen bool
	Limit    int
}

// CampRepository stores camps.
type CampRepository interface {
	Create(ctx context.Context, req *model.CampRequest) (*model.Camp, error)
	GetByID(ctx context.Context, id string) (*model.Camp, error)
	List(ctx context.Context, opts CampListOptions) ([]*model.Camp, error)
	Update(ctx context.Context, id string, req *model.CampRequest) (*model.Camp, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ChildRepository stores children. Ownership checks are the service's job.
type ChildRepository interface {
	Create(ctx context.Context, ownerID string, req *model.ChildRequest) (*model.Child, error)
	GetByID(ctx context.Context, id string) (*model.Child, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Child, error)
}

// EnrollmentRepository stores enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, e *model.Enrollment) (*model.Enrollment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.EnrollmentView, error)
	ListRecent(ctx context.Context, limit int) ([]*model.EnrollmentView, error)
	SetStatus(ctx context.Context, id string, status model.EnrollmentStatus) (bool, error)
}

// StatsRepository computes back-office counters.
type StatsRepository interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}
