package domain

import (
	"math"
	"time"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

// Sample is a user's position at a point in time. The live table keeps one
// per user; history keeps all of them.
type Sample struct {
	Email      string
	Latitude   float64
	Longitude  float64
	RecordedAt time.Time
}

// CircleLocation is a peer's last known position as seen through one
// shared circle.
type CircleLocation struct {
	Email      string    `json:"email"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	CircleName string    `json:"circleName"`
	PhotoURL   *string   `json:"photoUrl"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type HistoryPoint struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	ErrInvalidLatitude   = apperr.Validation("locations.update", "latitude must be between -90 and 90")
	ErrInvalidLongitude  = apperr.Validation("locations.update", "longitude must be between -180 and 180")
	ErrMemberRequired    = apperr.Validation("locations.history", "memberEmail is required")
	ErrNotInSharedCircle = apperr.Forbidden("locations.history", "member does not share a circle with you")
)

// ValidateCoordinates checks WGS84 ranges.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return ErrInvalidLongitude
	}
	return nil
}
