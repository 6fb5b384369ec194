package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/testutil"
	"github.com/spec-kit/plantpal-service/internal/upload"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

type gardenFixture struct {
	svc        *GardenService
	plants     *testutil.MemoryPlants
	recognizer *testutil.Recognizer
	store      *testutil.ImageStore
	notifier   *testutil.Notifier
}

func newGardenFixture() gardenFixture {
	f := gardenFixture{
		plants: testutil.NewMemoryPlants(),
		recognizer: &testutil.Recognizer{Suggestion: domain.PlantSuggestion{
			ScientificName: "Nephrolepis exaltata",
			CommonNames:    []string{"Boston fern"},
			Probability:    0.91,
		}},
		store:    &testutil.ImageStore{URL: "https://res.cloudinary.com/demo/plantpal_garden/abc.jpg"},
		notifier: &testutil.Notifier{},
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(dispatcher, f.notifier, zap.NewNop()).RegisterHandlers()
	f.svc = NewGardenService(GardenDependencies{
		Plants:     f.plants,
		Recognizer: f.recognizer,
		Store:      f.store,
		Dispatcher: dispatcher,
	}, "plantpal_garden", zap.NewNop())
	return f
}

func photo() *upload.Asset {
	return upload.NewAsset("image", "fern.jpg", "image/jpeg", []byte("fern-photo"))
}

func TestGarden_IdentifyAndSave(t *testing.T) {
	f := newGardenFixture()

	plant, err := f.svc.IdentifyAndSave(context.Background(), "u1", photo())
	require.NoError(t, err)

	assert.NotEmpty(t, plant.ID)
	assert.Equal(t, "u1", plant.UserID)
	assert.Equal(t, "Boston fern", plant.CommonName)
	assert.Equal(t, "Nephrolepis exaltata", plant.ScientificName)
	assert.Equal(t, f.store.URL, plant.ImageURL)

	require.Len(t, f.store.Uploads, 1)
	assert.Equal(t, "plantpal_garden", f.store.Uploads[0].Folder)
	assert.Equal(t, photo().ShortDigest(32), f.store.Uploads[0].PublicID)
	assert.False(t, f.store.Uploads[0].Overwrite)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "u1", sent[0].Room)
	assert.Equal(t, domain.NotificationSuccess, sent[0].Notification.Type)
	assert.Contains(t, sent[0].Notification.Msg, "Boston fern")
}

func TestGarden_ScientificNameFallback(t *testing.T) {
	f := newGardenFixture()
	f.recognizer.Suggestion = domain.PlantSuggestion{ScientificName: "Ficus lyrata"}

	plant, err := f.svc.IdentifyAndSave(context.Background(), "u1", photo())
	require.NoError(t, err)
	assert.Equal(t, "Ficus lyrata", plant.CommonName)
}

func TestGarden_NoSuggestionIsNotFound(t *testing.T) {
	f := newGardenFixture()
	f.recognizer.Err = domain.ErrNoSuggestion

	_, err := f.svc.IdentifyAndSave(context.Background(), "u1", photo())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Empty(t, f.store.Uploads)
}

func TestGarden_ProviderFailures(t *testing.T) {
	f := newGardenFixture()
	f.recognizer.Err = errors.New("timeout")
	_, err := f.svc.IdentifyAndSave(context.Background(), "u1", photo())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstream))

	f = newGardenFixture()
	f.store.Err = errors.New("cloudinary down")
	_, err = f.svc.IdentifyAndSave(context.Background(), "u1", photo())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstream))

	plants, err := f.svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, plants)
}

func TestGarden_StoreFailureAfterUploadReportsInternal(t *testing.T) {
	f := newGardenFixture()
	f.plants.Err = errors.New("insert failed")

	_, err := f.svc.IdentifyAndSave(context.Background(), "u1", photo())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Len(t, f.store.Uploads, 1)
	assert.Empty(t, f.notifier.Sent())
}

func TestGarden_ListNewestFirst(t *testing.T) {
	f := newGardenFixture()
	ctx := context.Background()

	f.recognizer.Suggestion = domain.PlantSuggestion{CommonNames: []string{"Aloe"}}
	_, err := f.svc.IdentifyAndSave(ctx, "u1", photo())
	require.NoError(t, err)
	f.recognizer.Suggestion = domain.PlantSuggestion{CommonNames: []string{"Basil"}}
	_, err = f.svc.IdentifyAndSave(ctx, "u1", photo())
	require.NoError(t, err)
	f.recognizer.Suggestion = domain.PlantSuggestion{CommonNames: []string{"Cactus"}}
	_, err = f.svc.IdentifyAndSave(ctx, "u2", photo())
	require.NoError(t, err)

	plants, err := f.svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "Basil", plants[0].CommonName)
	assert.Equal(t, "Aloe", plants[1].CommonName)
}

func TestGarden_RemoveIsOwnerScoped(t *testing.T) {
	f := newGardenFixture()
	ctx := context.Background()

	plant, err := f.svc.IdentifyAndSave(ctx, "owner", photo())
	require.NoError(t, err)

	err = f.svc.Remove(ctx, "intruder", plant.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = f.svc.Remove(ctx, "owner", "not-a-uuid")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = f.svc.Remove(ctx, "owner", uuid.NewString())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.svc.Remove(ctx, "owner", plant.ID))
	plants, err := f.svc.List(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, plants)

	sent := f.notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, domain.NotificationInfo, sent[1].Notification.Type)
}
