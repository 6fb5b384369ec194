package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/repository"
	"github.com/spec-kit/plantpal-service/internal/testutil"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

func TestProfile_UpdateUsername(t *testing.T) {
	users := testutil.NewMemoryUsers()
	users.Put(domain.User{ID: "u1", Username: "old"})
	notifier := &testutil.Notifier{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(dispatcher, notifier, zap.NewNop()).RegisterHandlers()
	svc := NewProfileService(users, &testutil.ImageStore{}, dispatcher, "plantpal_profiles", zap.NewNop())

	user, err := svc.UpdateUsername(context.Background(), "u1", "  new name ")
	require.NoError(t, err)
	assert.Equal(t, "new name", user.Username)
	assert.Len(t, notifier.Sent(), 1)

	_, err = svc.UpdateUsername(context.Background(), "u1", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.UpdateUsername(context.Background(), "ghost", "x")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestProfile_UpdatePicture(t *testing.T) {
	users := testutil.NewMemoryUsers()
	users.Put(domain.User{ID: "u1", Username: "ivy"})
	store := &testutil.ImageStore{URL: "https://res.cloudinary.com/demo/plantpal_profiles/u1.jpg"}
	svc := NewProfileService(users, store, nil, "plantpal_profiles", zap.NewNop())

	user, err := svc.UpdatePicture(context.Background(), "u1", photo())
	require.NoError(t, err)
	assert.Equal(t, store.URL, user.ProfilePictureURL)

	require.Len(t, store.Uploads, 1)
	assert.Equal(t, domain.ImageUploadOptions{
		Folder:         "plantpal_profiles",
		PublicID:       "u1",
		Overwrite:      true,
		Transformation: "c_fill,h_150,w_150",
	}, store.Uploads[0])

	store.Err = errors.New("quota")
	_, err = svc.UpdatePicture(context.Background(), "u1", photo())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstream))
}

func TestDiagnosis_Passthrough(t *testing.T) {
	raw := json.RawMessage(`{"is_healthy":true}`)
	svc := NewDiagnosisService(&testutil.Assessor{Result: raw}, zap.NewNop())

	got, err := svc.Assess(context.Background(), "u1", photo())
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(got))

	failing := NewDiagnosisService(&testutil.Assessor{Err: errors.New("down")}, zap.NewNop())
	_, err = failing.Assess(context.Background(), "u1", photo())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstream))
}

func TestAdmin_Stats(t *testing.T) {
	users := testutil.NewMemoryUsers()
	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	users.Put(domain.User{ID: "a", CreatedAt: day1})
	users.Put(domain.User{ID: "b", CreatedAt: day1.Add(time.Hour)})
	users.Put(domain.User{ID: "c", CreatedAt: day2})

	plants := testutil.NewMemoryPlants()
	ctx := context.Background()
	for _, name := range []string{"Fern", "Fern", "Fern", "Aloe", "Aloe", "Basil", "Cactus", "Daisy", "Elm"} {
		require.NoError(t, plants.Create(ctx, &domain.GardenPlant{UserID: "a", CommonName: name}))
	}

	stats, err := NewAdminService(users, plants).Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.UserCount)
	assert.Equal(t, int64(9), stats.PlantCount)
	assert.Equal(t, []domain.DailySignups{{Date: "2024-05-01", Users: 2}, {Date: "2024-05-02", Users: 1}}, stats.Timeline)
	require.Len(t, stats.Popular, 5)
	assert.Equal(t, domain.PlantPopularity{Name: "Fern", Count: 3}, stats.Popular[0])
	assert.Equal(t, domain.PlantPopularity{Name: "Aloe", Count: 2}, stats.Popular[1])
}

func TestAdmin_ListUsers(t *testing.T) {
	users := testutil.NewMemoryUsers()
	users.Put(domain.User{ID: "a", Username: "alice", CreatedAt: time.Now().Add(-time.Hour)})
	users.Put(domain.User{ID: "b", Username: "bob", CreatedAt: time.Now()})

	list, err := NewAdminService(users, testutil.NewMemoryPlants()).ListUsers(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].Username)

	users.Err = errors.New("db down")
	_, err = NewAdminService(users, testutil.NewMemoryPlants()).ListUsers(context.Background(), repository.UserFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
