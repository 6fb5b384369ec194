package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/config"
	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/persistence"
)

// testPool connects to PLANTPAL_TEST_POSTGRES_DSN and migrates a throwaway
// schema that is dropped when the test ends.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PLANTPAL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PLANTPAL_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := fmt.Sprintf("plantpal_test_%d", time.Now().UnixNano())
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, Schema: schema, MaxConns: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pg.Pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		pg.Close()
	})

	require.NoError(t, persistence.RunMigrations(ctx, pg.PoolHandle(), zap.NewNop()))
	return pg.PoolHandle()
}

func createUser(t *testing.T, repo UserRepository, name, email string) *domain.User {
	t.Helper()
	user := &domain.User{Username: name, Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_Postgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	fern := createUser(t, repo, "fern", "Fern@Example.com")
	assert.NotEmpty(t, fern.ID)
	assert.Equal(t, domain.RoleUser, fern.Role)

	t.Run("email lookup ignores case", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "FERN@example.COM")
		require.NoError(t, err)
		assert.Equal(t, fern.ID, found.ID)
		assert.Equal(t, "fern@example.com", found.Email)
	})

	t.Run("duplicate email differing in case", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{Username: "dup", Email: "FERN@EXAMPLE.COM", PasswordHash: "hash"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	t.Run("updates return the row", func(t *testing.T) {
		updated, err := repo.UpdateUsername(ctx, fern.ID, "fernanda")
		require.NoError(t, err)
		assert.Equal(t, "fernanda", updated.Username)

		updated, err = repo.UpdateProfilePicture(ctx, fern.ID, "https://img.example/p.jpg")
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/p.jpg", updated.ProfilePictureURL)
	})

	t.Run("list search and paging", func(t *testing.T) {
		createUser(t, repo, "moss", "moss@example.com")
		createUser(t, repo, "ivy", "ivy@example.com")

		all, err := repo.List(ctx, UserFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		matched, err := repo.List(ctx, UserFilter{SearchTerm: "MOSS"})
		require.NoError(t, err)
		require.Len(t, matched, 1)
		assert.Equal(t, "moss", matched[0].Username)

		paged, err := repo.List(ctx, UserFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, paged, 1)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("signup timeline groups by UTC day", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE users SET created_at = '2024-03-01T10:00:00Z' WHERE username IN ('fernanda', 'moss')`)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `UPDATE users SET created_at = '2024-03-02T23:30:00Z' WHERE username = 'ivy'`)
		require.NoError(t, err)

		timeline, err := repo.SignupTimeline(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, []domain.DailySignups{
			{Date: "2024-03-01", Users: 2},
			{Date: "2024-03-02", Users: 1},
		}, timeline)

		recent, err := repo.SignupTimeline(ctx, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, []domain.DailySignups{{Date: "2024-03-02", Users: 1}}, recent)
	})
}

func TestPlantRepository_Postgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	repo := NewPlantRepository(pool)

	owner := createUser(t, users, "owner", "owner@example.com")
	other := createUser(t, users, "other", "other@example.com")

	save := func(userID, name string) *domain.GardenPlant {
		plant := &domain.GardenPlant{UserID: userID, CommonName: name, ScientificName: name + " sp.", ImageURL: "https://img.example/" + name}
		require.NoError(t, repo.Create(ctx, plant))
		return plant
	}
	fern := save(owner.ID, "Fern")
	save(owner.ID, "Monstera")
	save(other.ID, "Fern")

	t.Run("list is owner scoped and newest first", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE garden_plants SET saved_at = NOW() - INTERVAL '1 hour' WHERE id = $1`, fern.ID)
		require.NoError(t, err)

		plants, err := repo.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, plants, 2)
		assert.Equal(t, "Monstera", plants[0].CommonName)
		assert.Equal(t, "Fern", plants[1].CommonName)
		for _, p := range plants {
			assert.Equal(t, owner.ID, p.UserID)
		}
	})

	t.Run("popular counts across users", func(t *testing.T) {
		popular, err := repo.Popular(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []domain.PlantPopularity{{Name: "Fern", Count: 2}, {Name: "Monstera", Count: 1}}, popular)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("delete by someone else is not found", func(t *testing.T) {
		_, err := repo.DeleteForUser(ctx, fern.ID, other.ID)
		assert.ErrorIs(t, err, pgx.ErrNoRows)

		plants, err := repo.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, plants, 2)
	})

	t.Run("owner delete returns the row once", func(t *testing.T) {
		deleted, err := repo.DeleteForUser(ctx, fern.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, fern.ID, deleted.ID)
		assert.Equal(t, "Fern", deleted.CommonName)

		_, err = repo.DeleteForUser(ctx, fern.ID, owner.ID)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	t.Run("deleting a user cascades to the garden", func(t *testing.T) {
		_, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, other.ID)
		require.NoError(t, err)

		plants, err := repo.ListByUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, plants)
	})
}
