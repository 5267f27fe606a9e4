package models

import "gorm.io/gorm"

// Catalog status buckets. Entries are stored with the status string as
// submitted; these four values partition the dashboard.
const (
	StatusWatched     = "Watched"
	StatusFavorite    = "Favorite"
	StatusPlanToWatch = "Plan to Watch"
	StatusDropped     = "Dropped"
)

// Anime is one user's catalog record for a single title.
type Anime struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	Title    string `gorm:"not null"`
	Episodes int    `gorm:"default:0"`
	Note     string
	Image    string  // stored filename of the uploaded image, empty if none
	Rating   float64 `gorm:"default:0"`
	Genre    string
	Status   string `gorm:"not null"`
}
