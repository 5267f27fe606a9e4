package repositories

import (
	"animelog/models"

	"gorm.io/gorm"
)

// AnimeRepository defines catalog database operations. Every query is scoped
// by the owning user id; there is no unscoped traversal across owners.
type AnimeRepository interface {
	Create(anime *models.Anime) error
	FindByOwnerAndID(ownerID uint, id uint) (*models.Anime, error)
	FindByOwner(ownerID uint) ([]models.Anime, error)
	FindByOwnerAndStatus(ownerID uint, status string) ([]models.Anime, error)
	Update(anime *models.Anime) error
	Delete(anime *models.Anime) error
}

type animeRepository struct {
	db *gorm.DB
}

// NewAnimeRepository creates a new AnimeRepository instance
func NewAnimeRepository(db *gorm.DB) AnimeRepository {
	return &animeRepository{db: db}
}

func (r *animeRepository) Create(anime *models.Anime) error {
	result := r.db.Create(anime)
	return result.Error
}

// FindByOwnerAndID finds an entry by id, only if it belongs to the owner.
func (r *animeRepository) FindByOwnerAndID(ownerID uint, id uint) (*models.Anime, error) {
	var anime models.Anime
	result := r.db.Where("user_id = ?", ownerID).First(&anime, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &anime, nil
}

func (r *animeRepository) FindByOwner(ownerID uint) ([]models.Anime, error) {
	var animes []models.Anime
	result := r.db.Where("user_id = ?", ownerID).Find(&animes)
	if result.Error != nil {
		return nil, result.Error
	}
	return animes, nil
}

func (r *animeRepository) FindByOwnerAndStatus(ownerID uint, status string) ([]models.Anime, error) {
	var animes []models.Anime
	result := r.db.Where("user_id = ? AND status = ?", ownerID, status).Find(&animes)
	if result.Error != nil {
		return nil, result.Error
	}
	return animes, nil
}

func (r *animeRepository) Update(anime *models.Anime) error {
	result := r.db.Save(anime)
	return result.Error
}

// Delete removes the row permanently. Unscoped bypasses the gorm.Model
// DeletedAt soft delete.
func (r *animeRepository) Delete(anime *models.Anime) error {
	result := r.db.Unscoped().Delete(anime)
	return result.Error
}
