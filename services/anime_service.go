package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"animelog/models"
	"animelog/repositories"

	"gorm.io/gorm"
)

// minutesPerEpisode is the fixed constant used for the watch-time estimate.
const minutesPerEpisode = 24

// AnimeService covers the per-user catalog. Every operation is scoped to the
// authenticated owner id.
type AnimeService interface {
	Add(ownerID uint, input *EntryInput) (*models.Anime, error)
	// Edit returns the updated entry and the previously stored image
	// reference when the image was replaced, for cleanup by the caller.
	Edit(ownerID uint, entryID uint, input *EntryInput) (*models.Anime, string, error)
	// Delete returns the removed entry's image reference, if any.
	Delete(ownerID uint, entryID uint) (string, error)
	ListAll(ownerID uint) ([]models.Anime, error)
	Dashboard(ownerID uint) (*Dashboard, error)
}

// EntryInput is the typed request schema for add/edit. Episodes and Rating
// stay raw strings: non-numeric input coerces to 0/0.0 instead of failing the
// request. Image is the already-stored filename; empty means no new image.
type EntryInput struct {
	Title    string
	Episodes string
	Note     string
	Rating   string
	Status   string
	Genre    string
	Image    string
}

// Stats is the dashboard summary block.
type Stats struct {
	Total            int
	AvgRating        float64
	TotalTimeWatched int // minutes, Watched entries only
}

// Dashboard partitions a user's catalog into the four status buckets.
type Dashboard struct {
	Watched     []models.Anime
	Favorite    []models.Anime
	PlanToWatch []models.Anime
	Dropped     []models.Anime
	Stats       Stats
}

type animeService struct {
	repo repositories.AnimeRepository
}

var _ AnimeService = (*animeService)(nil)

// NewAnimeService creates a new AnimeService instance
func NewAnimeService(repo repositories.AnimeRepository) AnimeService {
	return &animeService{repo: repo}
}

// Add creates a catalog entry for the owner.
func (s *animeService) Add(ownerID uint, input *EntryInput) (*models.Anime, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: Title is required", ErrValidation)
	}

	anime := models.Anime{
		UserID:   ownerID,
		Title:    title,
		Episodes: coerceInt(input.Episodes),
		Note:     strings.TrimSpace(input.Note),
		Rating:   coerceFloat(input.Rating),
		Status:   defaultStatus(input.Status),
		Genre:    strings.TrimSpace(input.Genre),
		Image:    input.Image,
	}
	if err := s.repo.Create(&anime); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return &anime, nil
}

// Edit replaces the editable fields of an owned entry. An empty title leaves
// the existing title unchanged; the image is replaced only when a new one was
// supplied.
func (s *animeService) Edit(ownerID uint, entryID uint, input *EntryInput) (*models.Anime, string, error) {
	anime, err := s.find(ownerID, entryID)
	if err != nil {
		return nil, "", err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		anime.Title = title
	}
	anime.Episodes = coerceInt(input.Episodes)
	anime.Note = strings.TrimSpace(input.Note)
	anime.Rating = coerceFloat(input.Rating)
	anime.Status = defaultStatus(input.Status)
	anime.Genre = strings.TrimSpace(input.Genre)

	replaced := ""
	if input.Image != "" && input.Image != anime.Image {
		replaced = anime.Image
		anime.Image = input.Image
	}

	if err := s.repo.Update(anime); err != nil {
		return nil, "", fmt.Errorf("failed to save entry: %w", err)
	}
	return anime, replaced, nil
}

// Delete hard-deletes an owned entry.
func (s *animeService) Delete(ownerID uint, entryID uint) (string, error) {
	anime, err := s.find(ownerID, entryID)
	if err != nil {
		return "", err
	}
	if err := s.repo.Delete(anime); err != nil {
		return "", fmt.Errorf("failed to delete entry: %w", err)
	}
	return anime.Image, nil
}

// ListAll returns the owner's full catalog.
func (s *animeService) ListAll(ownerID uint) ([]models.Anime, error) {
	return s.repo.FindByOwner(ownerID)
}

// Dashboard loads the four status buckets and computes the summary stats.
func (s *animeService) Dashboard(ownerID uint) (*Dashboard, error) {
	d := &Dashboard{}
	var err error
	if d.Watched, err = s.repo.FindByOwnerAndStatus(ownerID, models.StatusWatched); err != nil {
		return nil, err
	}
	if d.Favorite, err = s.repo.FindByOwnerAndStatus(ownerID, models.StatusFavorite); err != nil {
		return nil, err
	}
	if d.PlanToWatch, err = s.repo.FindByOwnerAndStatus(ownerID, models.StatusPlanToWatch); err != nil {
		return nil, err
	}
	if d.Dropped, err = s.repo.FindByOwnerAndStatus(ownerID, models.StatusDropped); err != nil {
		return nil, err
	}
	d.Stats = ComputeStats(d.Watched, d.Favorite, d.PlanToWatch, d.Dropped)
	return d, nil
}

// ComputeStats derives the dashboard summary. The average covers strictly
// positive ratings among Watched and Favorite entries only, rounded to two
// decimal places; watch time counts Watched episodes only.
func ComputeStats(watched, favorite, planToWatch, dropped []models.Anime) Stats {
	stats := Stats{
		Total: len(watched) + len(favorite) + len(planToWatch) + len(dropped),
	}

	sum := 0.0
	count := 0
	for _, list := range [][]models.Anime{watched, favorite} {
		for _, a := range list {
			if a.Rating > 0 {
				sum += a.Rating
				count++
			}
		}
	}
	if count > 0 {
		stats.AvgRating = math.Round(sum/float64(count)*100) / 100
	}

	episodes := 0
	for _, a := range watched {
		episodes += a.Episodes
	}
	stats.TotalTimeWatched = episodes * minutesPerEpisode

	return stats
}

func (s *animeService) find(ownerID uint, entryID uint) (*models.Anime, error) {
	anime, err := s.repo.FindByOwnerAndID(ownerID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Anime not found or access denied", ErrNotFound)
		}
		return nil, fmt.Errorf("database error retrieving entry: %w", err)
	}
	return anime, nil
}

// coerceInt parses a non-negative episode count; anything unparsable or
// negative becomes 0.
func coerceInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// coerceFloat parses a rating; anything unparsable becomes 0.0.
func coerceFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0.0
	}
	return f
}

func defaultStatus(status string) string {
	if strings.TrimSpace(status) == "" {
		return models.StatusPlanToWatch
	}
	return strings.TrimSpace(status)
}
