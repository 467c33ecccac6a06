package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodInspiring  Mood = "inspiring"
	MoodThoughtful Mood = "thoughtful"
	MoodExcited    Mood = "excited"
	MoodGrateful   Mood = "grateful"
	MoodPeaceful   Mood = "peaceful"
)

// Moods lists every accepted mood in declaration order.
var Moods = []Mood{MoodHappy, MoodInspiring, MoodThoughtful, MoodExcited, MoodGrateful, MoodPeaceful}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMood matches s against the mood enumeration ignoring case and surrounding space.
func ParseMood(s string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Moment struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photo_url"`
	Mood        Mood      `json:"mood"`
	Location    Location  `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OwnerInfo struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// MomentWithOwnerInfo is a Moment joined with its owner's public profile.
// Owner fields are empty when the owner record no longer exists.
type MomentWithOwnerInfo struct {
	Moment
	OwnerInfo
}

func WithOwner(m Moment, owner OwnerInfo) MomentWithOwnerInfo {
	return MomentWithOwnerInfo{Moment: m, OwnerInfo: owner}
}

type Counts struct {
	Reactions int64 `json:"reaction_count"`
	Threads   int64 `json:"thread_count"`
}

type MomentWithMetrics struct {
	MomentWithOwnerInfo
	Counts
	// DistanceMeters is only set on proximity results.
	DistanceMeters *int64 `json:"distance_meters,omitempty"`
}

func WithMetrics(m MomentWithOwnerInfo, c Counts, distance *int64) MomentWithMetrics {
	return MomentWithMetrics{MomentWithOwnerInfo: m, Counts: c, DistanceMeters: distance}
}

type CreateMomentRequest struct {
	Title       string   `json:"title" validate:"notblank"`
	Description string   `json:"description" validate:"notblank"`
	PhotoURL    string   `json:"photo_url" validate:"required,absurl"`
	Mood        Mood     `json:"mood" validate:"required,mood"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
}

// UpdateMomentRequest carries a partial update; nil fields are left untouched.
type UpdateMomentRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,notblank"`
	Description *string  `json:"description,omitempty" validate:"omitempty,notblank"`
	PhotoURL    *string  `json:"photo_url,omitempty" validate:"omitempty,absurl"`
	Mood        *Mood    `json:"mood,omitempty" validate:"omitempty,mood"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

func (r UpdateMomentRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.PhotoURL == nil &&
		r.Mood == nil && r.Latitude == nil && r.Longitude == nil
}

// MomentPatch is a validated update. Location is replaced as a whole pair.
type MomentPatch struct {
	Title       *string
	Description *string
	PhotoURL    *string
	Mood        *Mood
	Location    *Location
}
