package moments

import (
	"context"
	"fmt"
	"time"

	"github.com/bwise1/moment_stack/internal/metrics"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/jackc/pgx/v5"
)

// Locations are stored as SRID 4326 geometry and compared as geography, so the
// membership test and the reported distance are measured on the same spheroid.
// $1 = lng, $2 = lat, $3 = radius.
const (
	queryPoint     = `ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography`
	withinRadius   = `ST_DWithin(m.location::geography, ` + queryPoint + `, $3)`
	distanceMeters = `ST_Distance(m.location::geography, ` + queryPoint + `)`
)

// FindNearby returns moments within f.RadiusMeters of f.Point, closest first,
// decorated with owner info, counts and distance.
func (r *Repository) FindNearby(ctx context.Context, f model.NearbyFilter) (res []model.MomentWithMetrics, err error) {
	defer observe("nearby", time.Now(), &err)

	p := newPredicates(f.Point.Longitude, f.Point.Latitude, float64(f.RadiusMeters))
	p.raw(withinRadius)
	p.applyFilter(f.Filter)
	where := p.where()
	page := p.page(f.Limit, f.Offset)

	stmt := fmt.Sprintf(`
		SELECT %s, %s AS distance
		FROM %s
		%s
		ORDER BY distance ASC, m.created_at DESC, m.id DESC
		%s`, momentColumns, distanceMeters, momentSource, where, page)

	err = r.db.RunInReadTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, stmt, p.args...)
		if err != nil {
			return err
		}
		found, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (momentRow, error) {
			var distance float64
			m, err := scanMomentWithOwner(row, &distance)
			return momentRow{MomentWithOwnerInfo: m, distance: &distance}, err
		})
		if err != nil {
			return err
		}
		res, err = r.agg.Resolve(ctx, tx, found)
		return err
	})
	if err != nil {
		return nil, storeError("find nearby moments", err)
	}
	metrics.ObserveResults("nearby", len(res))
	return res, nil
}
