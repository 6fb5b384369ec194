package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/plantpal-service/internal/domain"
)

// PlantRepository encapsulates garden persistence.
type PlantRepository interface {
	Create(ctx context.Context, plant *domain.GardenPlant) error
	ListByUser(ctx context.Context, userID string) ([]domain.GardenPlant, error)
	DeleteForUser(ctx context.Context, id, userID string) (*domain.GardenPlant, error)
	Count(ctx context.Context) (int64, error)
	Popular(ctx context.Context, limit int) ([]domain.PlantPopularity, error)
}

type plantRepository struct {
	db DB
}

// NewPlantRepository instantiates repository.
func NewPlantRepository(db DB) PlantRepository {
	return &plantRepository{db: db}
}

func (r *plantRepository) Create(ctx context.Context, plant *domain.GardenPlant) error {
	const query = `
        INSERT INTO garden_plants (user_id, common_name, scientific_name, image_url)
        VALUES ($1, $2, $3, $4)
        RETURNING id, saved_at`
	return r.db.QueryRow(ctx, query,
		plant.UserID,
		plant.CommonName,
		plant.ScientificName,
		plant.ImageURL,
	).Scan(&plant.ID, &plant.SavedAt)
}

func (r *plantRepository) ListByUser(ctx context.Context, userID string) ([]domain.GardenPlant, error) {
	const query = `
        SELECT id, user_id, common_name, scientific_name, image_url, saved_at
        FROM garden_plants WHERE user_id=$1
        ORDER BY saved_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plants := []domain.GardenPlant{}
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, *plant)
	}
	return plants, rows.Err()
}

// DeleteForUser removes a plant only when it belongs to userID.
// pgx.ErrNoRows covers both a missing plant and one owned by someone else.
func (r *plantRepository) DeleteForUser(ctx context.Context, id, userID string) (*domain.GardenPlant, error) {
	const query = `
        DELETE FROM garden_plants WHERE id=$1 AND user_id=$2
        RETURNING id, user_id, common_name, scientific_name, image_url, saved_at`
	return scanPlant(r.db.QueryRow(ctx, query, id, userID))
}

func (r *plantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM garden_plants`).Scan(&count)
	return count, err
}

func (r *plantRepository) Popular(ctx context.Context, limit int) ([]domain.PlantPopularity, error) {
	const query = `
        SELECT common_name, COUNT(*) AS saves
        FROM garden_plants
        GROUP BY common_name
        ORDER BY saves DESC, common_name
        LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	popular := []domain.PlantPopularity{}
	for rows.Next() {
		var entry domain.PlantPopularity
		if err := rows.Scan(&entry.Name, &entry.Count); err != nil {
			return nil, err
		}
		popular = append(popular, entry)
	}
	return popular, rows.Err()
}

func scanPlant(row pgx.Row) (*domain.GardenPlant, error) {
	var plant domain.GardenPlant
	if err := row.Scan(
		&plant.ID,
		&plant.UserID,
		&plant.CommonName,
		&plant.ScientificName,
		&plant.ImageURL,
		&plant.SavedAt,
	); err != nil {
		return nil, err
	}
	return &plant, nil
}
