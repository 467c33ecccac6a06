package client

import "github.com/bwise1/moment_stack/internal/model"

// Aliases let callers outside this module name the request and response types.
type (
	Mood                = model.Mood
	Location            = model.Location
	Moment              = model.Moment
	MomentWithOwnerInfo = model.MomentWithOwnerInfo
	MomentWithMetrics   = model.MomentWithMetrics
	MomentPage          = model.MomentPage
	NearbyPage          = model.NearbyPage
	OwnerPage           = model.OwnerPage
	CreateMomentRequest = model.CreateMomentRequest
	UpdateMomentRequest = model.UpdateMomentRequest
)

const (
	MoodHappy      = model.MoodHappy
	MoodInspiring  = model.MoodInspiring
	MoodThoughtful = model.MoodThoughtful
	MoodExcited    = model.MoodExcited
	MoodGrateful   = model.MoodGrateful
	MoodPeaceful   = model.MoodPeaceful
)
