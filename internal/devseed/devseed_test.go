package devseed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/mocks"
	"github.com/campiestivi/campi/internal/testutil"
)

type fakeAdmins struct {
	granted []string
	err     error
}

func (f *fakeAdmins) Grant(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.granted = append(f.granted, userID)
	return nil
}

func (f *fakeAdmins) Revoke(context.Context, string) (bool, error) { return false, nil }

func (f *fakeAdmins) List(context.Context) ([]*model.User, error) { return nil, nil }

var testNow = testutil.TestTime()

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRun_SeedsEmptyDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	camps := mocks.NewMockCampRepository(ctrl)
	admins := &fakeAdmins{}

	users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.NotFound("missing")).Times(2)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *model.User) (*model.User, error) {
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(DefaultPassword)))
			out := *u
			out.ID = "id-" + u.Email
			return &out, nil
		}).Times(2)
	camps.EXPECT().List(gomock.Any(), core.CampListOptions{}).Return(nil, nil)

	var created []model.CampRequest
	camps.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CampRequest) (*model.Camp, error) {
			created = append(created, *req)
			return &model.Camp{Name: req.Name}, nil
		}).Times(3)

	err := Run(context.Background(), Services{
		Users: users, Admins: admins, Camps: camps,
		Now: testutil.FixedTimeFunc(testNow), BcryptCost: bcrypt.MinCost,
	}, quietLogger(), Options{})

	require.NoError(t, err)
	assert.Equal(t, []string{"id-admin@campi.local"}, admins.granted)
	require.Len(t, created, 3)
	for _, c := range created {
		assert.True(t, c.StartsOn.After(testNow), c.Name)
	}
	assert.False(t, created[2].Open)
}

func TestRun_IsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	camps := mocks.NewMockCampRepository(ctrl)
	admins := &fakeAdmins{}

	users.EXPECT().GetByEmail(gomock.Any(), "boss@example.org").
		Return(&model.User{ID: "u-1", Email: "boss@example.org"}, nil)
	users.EXPECT().GetByEmail(gomock.Any(), "genitore@campi.local").
		Return(&model.User{ID: "u-2", Email: "genitore@campi.local"}, nil)

	var existing []*model.Camp
	for _, c := range defaultCamps(testNow) {
		existing = append(existing, &model.Camp{Name: c.Name})
	}
	camps.EXPECT().List(gomock.Any(), gomock.Any()).Return(existing, nil)

	err := Run(context.Background(), Services{
		Users: users, Admins: admins, Camps: camps,
		Now: testutil.FixedTimeFunc(testNow),
	}, quietLogger(), Options{AdminEmail: "boss@example.org"})

	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, admins.granted)
}

func TestRun_Failures(t *testing.T) {
	t.Run("lookup error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		err := Run(context.Background(), Services{
			Users: users, Admins: &fakeAdmins{}, Camps: mocks.NewMockCampRepository(ctrl),
		}, quietLogger(), Options{})

		assert.ErrorContains(t, err, "db down")
	})

	t.Run("grant error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&model.User{ID: "u-1"}, nil)

		err := Run(context.Background(), Services{
			Users: users, Admins: &fakeAdmins{err: errors.New("boom")}, Camps: mocks.NewMockCampRepository(ctrl),
		}, quietLogger(), Options{})

		assert.ErrorContains(t, err, "grant admin")
	})

	t.Run("camp errors are counted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		camps := mocks.NewMockCampRepository(ctrl)
		users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&model.User{ID: "u-1"}, nil).Times(2)
		camps.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
		camps.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed")).Times(3)

		err := Run(context.Background(), Services{
			Users: users, Admins: &fakeAdmins{}, Camps: camps,
		}, quietLogger(), Options{})

		assert.EqualError(t, err, "3 seed errors; check logs")
	})

	t.Run("missing dependencies", func(t *testing.T) {
		assert.Error(t, Run(context.Background(), Services{}, nil, Options{}))
	})
}

func TestDefaultCamps_AreValid(t *testing.T) {
	for _, c := range defaultCamps(testNow) {
		req := c
		assert.NoError(t, req.Validate(), c.Name)
	}
}
