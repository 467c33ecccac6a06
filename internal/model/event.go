package model

const (
	EventMomentCreated = "moment_created"
	EventMomentUpdated = "moment_updated"
	EventMomentDeleted = "moment_deleted"
)

// MomentEvent announces a committed change to a moment.
type MomentEvent struct {
	Type   string `json:"type"`
	Moment Moment `json:"moment"`
}
