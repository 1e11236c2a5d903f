package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/mocks"
)

type enrollmentFixture struct {
	svc         *EnrollmentService
	enrollments *mocks.MockEnrollmentRepository
	children    *mocks.MockChildRepository
	camps       *mocks.MockCampRepository
}

func newEnrollmentFixture(t *testing.T) enrollmentFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := enrollmentFixture{
		enrollments: mocks.NewMockEnrollmentRepository(ctrl),
		children:    mocks.NewMockChildRepository(ctrl),
		camps:       mocks.NewMockCampRepository(ctrl),
	}
	f.svc = NewEnrollmentService(EnrollmentServiceOptions{Repos: EnrollmentRepos{
		Enrollments: f.enrollments, Children: f.children, Camps: f.camps,
	}})
	return f
}

func fullDraft() model.EnrollmentDraft {
	return model.EnrollmentDraft{ChildID: "k-1", CampID: "c-1", AcceptTerms: true}
}

func TestEnrollmentService_Submit(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	f.children.EXPECT().GetByID(ctx, "k-1").Return(&model.Child{ID: "k-1", OwnerID: "u-1"}, nil)
	f.camps.EXPECT().GetByID(ctx, "c-1").Return(&model.Camp{ID: "c-1", Open: true, Capacity: 10, Enrolled: 3}, nil)
	f.enrollments.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e *model.Enrollment) (*model.Enrollment, error) {
		assert.Equal(t, "u-1", e.OwnerID)
		assert.Equal(t, model.EnrollmentPending, e.Status)
		out := *e
		out.ID = "e-1"
		return &out, nil
	})

	e, err := f.svc.Submit(ctx, "u-1", fullDraft())
	require.NoError(t, err)
	assert.Equal(t, "e-1", e.ID)
}

func TestEnrollmentService_Submit_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("terms not accepted", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		d := fullDraft()
		d.AcceptTerms = false
		_, err := f.svc.Submit(ctx, "u-1", d)
		assert.Equal(t, "accept_terms", apperrors.GetField(err))
	})

	t.Run("someone else's child", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.children.EXPECT().GetByID(ctx, "k-1").Return(&model.Child{ID: "k-1", OwnerID: "u-2"}, nil)
		_, err := f.svc.Submit(ctx, "u-1", fullDraft())
		assert.Equal(t, "child_id", apperrors.GetField(err))
	})

	t.Run("full camp", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.children.EXPECT().GetByID(ctx, "k-1").Return(&model.Child{ID: "k-1", OwnerID: "u-1"}, nil)
		f.camps.EXPECT().GetByID(ctx, "c-1").Return(&model.Camp{ID: "c-1", Open: true, Capacity: 2, Enrolled: 2}, nil)
		_, err := f.svc.Submit(ctx, "u-1", fullDraft())
		assert.Equal(t, "camp_id", apperrors.GetField(err))
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		f.children.EXPECT().GetByID(ctx, "k-1").Return(&model.Child{ID: "k-1", OwnerID: "u-1"}, nil)
		f.camps.EXPECT().GetByID(ctx, "c-1").Return(&model.Camp{ID: "c-1", Open: true, Capacity: 2}, nil)
		f.enrollments.EXPECT().Create(ctx, gomock.Any()).Return(nil, apperrors.ConflictField("child_id", "dup"))
		_, err := f.svc.Submit(ctx, "u-1", fullDraft())
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("signed out", func(t *testing.T) {
		f := newEnrollmentFixture(t)
		_, err := f.svc.Submit(ctx, "", fullDraft())
		assert.True(t, apperrors.IsUnauthorized(err))
	})
}

func TestEnrollmentService_ValidateStepOne(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	f.children.EXPECT().GetByID(ctx, "k-1").Return(&model.Child{ID: "k-1", OwnerID: "u-1", FirstName: "Giulia"}, nil)
	review, err := f.svc.Validate(ctx, "u-1", &model.EnrollmentDraft{ChildID: " k-1 "}, model.StepChild)
	require.NoError(t, err)
	assert.Equal(t, "Giulia", review.Child.FirstName)
	assert.Nil(t, review.Camp)
}

func TestEnrollmentService_Options(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	f.children.EXPECT().ListByOwner(ctx, "u-1").Return([]*model.Child{{ID: "k-1"}}, nil)
	f.camps.EXPECT().List(ctx, core.CampListOptions{OnlyOpen: true}).Return([]*model.Camp{
		{ID: "c-1", Open: true, Capacity: 5, Enrolled: 1},
		{ID: "c-2", Open: true, Capacity: 5, Enrolled: 5},
	}, nil)

	opts, err := f.svc.Options(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, opts.Children, 1)
	require.Len(t, opts.Camps, 1)
	assert.Equal(t, "c-1", opts.Camps[0].ID)
}

func TestEnrollmentService_SetStatus(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	f.enrollments.EXPECT().SetStatus(ctx, "e-1", model.EnrollmentConfirmed).Return(true, nil)
	require.NoError(t, f.svc.SetStatus(ctx, "e-1", model.EnrollmentConfirmed))

	f.enrollments.EXPECT().SetStatus(ctx, "e-2", model.EnrollmentCancelled).Return(false, nil)
	assert.True(t, apperrors.IsNotFound(f.svc.SetStatus(ctx, "e-2", model.EnrollmentCancelled)))

	assert.True(t, apperrors.IsValidation(f.svc.SetStatus(ctx, "e-1", "archived")))
}
