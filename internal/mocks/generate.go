// Package mocks provides gomock doubles for campi's storage ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	rows := mocks.NewMockRowStore(ctrl)
//	rows.EXPECT().FindOne(gomock.Any(), "admins", gomock.Any()).Return(ports.Row{"user_id": id}, nil)
//
// Hand-written doubles for the auth ports live in internal/mocks/auth.
package mocks

// Generate mock for RowStore interface from internal/ports package.
// This creates MockRowStore with methods: FindOne, Update, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=row_store_mock.go github.com/campiestivi/campi/internal/ports RowStore

// Generate mocks for the repositories in internal/core.
// This creates MockCampRepository, MockChildRepository, MockEnrollmentRepository, MockStatsRepository and MockUserRepository.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=repositories_mock.go github.com/campiestivi/campi/internal/core CampRepository,ChildRepository,EnrollmentRepository,StatsRepository,UserRepository
