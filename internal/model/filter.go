package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit        = 20
	MaxLimit            = 100
	DefaultOffset       = 0
	DefaultRadiusMeters = 1000
	MaxRadiusMeters     = 100000
)

// Filter selects moments for listing. Zero-valued optional fields impose no constraint.
type Filter struct {
	Moods     []Mood
	StartDate *time.Time
	EndDate   *time.Time
	OwnerID   *uuid.UUID
	Limit     int
	Offset    int
}

type NearbyFilter struct {
	Filter
	Point        Location
	RadiusMeters int
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

type MomentPage struct {
	Moments    []MomentWithMetrics `json:"moments"`
	Pagination Pagination          `json:"pagination"`
}

type NearbyQuery struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters int     `json:"radius_meters"`
}

type NearbyPage struct {
	Moments    []MomentWithMetrics `json:"moments"`
	Filters    NearbyQuery         `json:"filters"`
	Pagination Pagination          `json:"pagination"`
}

// OwnerPage is an owner's listing plus the page's coordinates encoded as a polyline,
// oldest first.
type OwnerPage struct {
	MomentPage
	Trail string `json:"trail"`
}
