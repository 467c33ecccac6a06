package moments

import (
	"context"
	"errors"
	"strings"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service validates moment commands and orchestrates the store, cache and notifier.
type Service struct {
	store    Store
	cache    Cache
	notifier Notifier
	log      *zap.Logger
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req model.CreateMomentRequest) (model.Moment, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)
	if err := util.ValidateInput(req); err != nil {
		return model.Moment{}, err
	}

	m := model.Moment{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Mood:        req.Mood,
		Location:    model.Location{Latitude: *req.Latitude, Longitude: *req.Longitude},
	}

	created, err := s.store.Create(ctx, m)
	if err != nil {
		return model.Moment{}, err
	}
	s.publish(model.EventMomentCreated, created)
	return created, nil
}

// Get returns the moment with owner info. Malformed ids are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (model.MomentWithOwnerInfo, error) {
	momentID, err := uuid.Parse(id)
	if err != nil {
		return model.MomentWithOwnerInfo{}, model.ErrNotFound
	}

	var (
		version   CacheVersion
		cacheable bool
	)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, momentID)
		if err != nil {
			s.log.Warn("moment cache read failed", zap.String("moment_id", id), zap.Error(err))
		} else if ok {
			return cached, nil
		}

		// Taken before the store read so an invalidation in between voids the fill.
		if version, err = s.cache.Version(ctx, momentID); err != nil {
			s.log.Warn("moment cache version read failed", zap.String("moment_id", id), zap.Error(err))
		} else {
			cacheable = true
		}
	}

	m, err := s.store.GetByID(ctx, momentID)
	if err != nil {
		return model.MomentWithOwnerInfo{}, err
	}

	if cacheable {
		if _, err := s.cache.SetIfCurrent(ctx, m, version); err != nil {
			s.log.Warn("moment cache write failed", zap.String("moment_id", id), zap.Error(err))
		}
	}
	return m, nil
}

// ProfileChanged drops cached owner info after a user's username or avatar changes.
func (s *Service) ProfileChanged(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOwners(ctx); err != nil {
		s.log.Warn("owner cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *Service) Update(ctx context.Context, id string, ownerID uuid.UUID, req model.UpdateMomentRequest) (model.Moment, error) {
	if req.Empty() {
		return model.Moment{}, model.NewValidationError("", "No valid update fields provided")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return model.Moment{}, model.NewValidationError("location", "Both latitude and longitude must be provided together")
	}
	req.Title = trimmed(req.Title)
	req.Description = trimmed(req.Description)
	req.PhotoURL = trimmed(req.PhotoURL)
	if err := util.ValidateInput(req); err != nil {
		return model.Moment{}, err
	}

	momentID, err := uuid.Parse(id)
	if err != nil {
		return model.Moment{}, model.ErrNotFoundOrForbidden
	}

	patch := model.MomentPatch{
		Title:       req.Title,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Mood:        req.Mood,
	}
	if req.Latitude != nil {
		patch.Location = &model.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	updated, err := s.store.Update(ctx, momentID, ownerID, patch)
	if err != nil {
		return model.Moment{}, err
	}
	s.invalidate(ctx, momentID)
	s.publish(model.EventMomentUpdated, updated)
	return updated, nil
}

// Delete reports whether a moment owned by ownerID was removed. Unknown, foreign
// and malformed ids all yield false.
func (s *Service) Delete(ctx context.Context, id string, ownerID uuid.UUID) (bool, error) {
	momentID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}

	removed, ok, err := s.store.Delete(ctx, momentID, ownerID)
	if err != nil || !ok {
		return false, err
	}
	s.invalidate(ctx, momentID)
	s.publish(model.EventMomentDeleted, removed)
	return true, nil
}

func (s *Service) List(ctx context.Context, f model.Filter) (model.MomentPage, error) {
	found, err := s.store.ListMany(ctx, f)
	if err != nil {
		return model.MomentPage{}, err
	}
	return model.MomentPage{Moments: found, Pagination: paginationOf(f, len(found))}, nil
}

func (s *Service) FindNearby(ctx context.Context, f model.NearbyFilter) (model.NearbyPage, error) {
	found, err := s.store.FindNearby(ctx, f)
	if err != nil {
		return model.NearbyPage{}, err
	}
	return model.NearbyPage{
		Moments: found,
		Filters: model.NearbyQuery{
			Latitude:     f.Point.Latitude,
			Longitude:    f.Point.Longitude,
			RadiusMeters: f.RadiusMeters,
		},
		Pagination: paginationOf(f.Filter, len(found)),
	}, nil
}

// ListByOwner lists one owner's moments and encodes the page's locations as a trail.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, f model.Filter) (model.OwnerPage, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return model.OwnerPage{}, model.NewValidationError("user_id", "user_id must be a valid identifier")
	}
	f.OwnerID = &id

	page, err := s.List(ctx, f)
	if err != nil {
		return model.OwnerPage{}, err
	}
	return model.OwnerPage{MomentPage: page, Trail: trailOf(page.Moments)}, nil
}

// trailOf walks newest-first results backwards so the trail runs oldest to newest.
func trailOf(found []model.MomentWithMetrics) string {
	coords := make([][]float64, 0, len(found))
	for i := len(found) - 1; i >= 0; i-- {
		loc := found[i].Location
		coords = append(coords, []float64{loc.Latitude, loc.Longitude})
	}
	return util.EncodeTrail(coords)
}

func paginationOf(f model.Filter, count int) model.Pagination {
	return model.Pagination{Limit: f.Limit, Offset: f.Offset, Count: count}
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("moment cache invalidation failed", zap.String("moment_id", id.String()), zap.Error(err))
	}
}

func (s *Service) publish(kind string, m model.Moment) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(model.MomentEvent{Type: kind, Moment: m})
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// IsStoreError reports whether err came from the persistence layer.
func IsStoreError(err error) bool {
	return errors.Is(err, model.ErrStore)
}
