package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/mocks"
)

func validCampRequest() model.CampRequest {
	return model.CampRequest{
		Name:       "Campo Dolomiti",
		Location:   "Canazei",
		StartsOn:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:     time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		Capacity:   40,
		PriceCents: 45000,
		Open:       true,
	}
}

func TestCampService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampRepository(ctrl)
	svc := NewCampService(CampServiceOptions{Repo: repo})
	ctx := context.Background()

	req := validCampRequest()
	req.Name = "  Campo Dolomiti  "
	repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, r *model.CampRequest) (*model.Camp, error) {
		assert.Equal(t, "Campo Dolomiti", r.Name)
		return &model.Camp{ID: "c-1", Name: r.Name}, nil
	})

	camp, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "c-1", camp.ID)
}

func TestCampService_Create_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewCampService(CampServiceOptions{Repo: mocks.NewMockCampRepository(ctrl)})

	req := validCampRequest()
	req.EndsOn = req.StartsOn.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), req)
	assert.Equal(t, "ends_on", apperrors.GetField(err))

	req = validCampRequest()
	req.Capacity = 0
	_, err = svc.Create(context.Background(), req)
	assert.Equal(t, "capacity", apperrors.GetField(err))
}

func TestCampService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampRepository(ctrl)
	svc := NewCampService(CampServiceOptions{Repo: repo})

	repo.EXPECT().List(gomock.Any(), core.CampListOptions{OnlyOpen: true}).Return([]*model.Camp{{ID: "c-1"}}, nil)
	camps, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, camps, 1)
}

func TestCampService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCampRepository(ctrl)
	svc := NewCampService(CampServiceOptions{Repo: repo})
	ctx := context.Background()

	repo.EXPECT().Delete(ctx, "c-1").Return(true, nil)
	require.NoError(t, svc.Delete(ctx, "c-1"))

	repo.EXPECT().Delete(ctx, "c-2").Return(false, nil)
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, "c-2")))

	repo.EXPECT().Delete(ctx, "c-3").Return(false, apperrors.Wrap(errors.New("violates foreign key"), apperrors.ErrCodeForeignKey, "fk"))
	assert.True(t, apperrors.IsConflict(svc.Delete(ctx, "c-3")))
}
