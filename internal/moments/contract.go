package moments

import (
	"context"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
)

// Store is the persistence contract the service depends on. *Repository implements it.
type Store interface {
	Create(ctx context.Context, m model.Moment) (model.Moment, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.MomentWithOwnerInfo, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, patch model.MomentPatch) (model.Moment, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (model.Moment, bool, error)
	ListMany(ctx context.Context, f model.Filter) ([]model.MomentWithMetrics, error)
	FindNearby(ctx context.Context, f model.NearbyFilter) ([]model.MomentWithMetrics, error)
}

// CacheVersion snapshots the generations a cached moment depends on: its own
// row and the owner profiles joined into it.
type CacheVersion struct {
	Moment int64
	Owners int64
}

// Cache holds single-moment reads. A miss is (zero, false, nil).
//
// Fills are conditional: Version is read before the store read and
// SetIfCurrent writes only if neither generation moved in between.
// Invalidate and InvalidateOwners bump those generations.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (model.MomentWithOwnerInfo, bool, error)
	Version(ctx context.Context, id uuid.UUID) (CacheVersion, error)
	SetIfCurrent(ctx context.Context, m model.MomentWithOwnerInfo, v CacheVersion) (bool, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
	InvalidateOwners(ctx context.Context) error
}

// Notifier receives committed changes. Publish must not block.
type Notifier interface {
	Publish(event model.MomentEvent)
}
