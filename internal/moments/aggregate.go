package moments

import (
	"context"
	"math"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
)

// momentRow is a fetched moment before decoration. distance is set by proximity queries.
type momentRow struct {
	model.MomentWithOwnerInfo
	distance *float64
}

// countsQuery counts reactions and threads for a batch of moment ids in one round trip.
const countsQuery = `
	WITH ids AS (
		SELECT DISTINCT unnest($1::text[])::uuid AS id
	)
	SELECT ids.id,
		COALESCE(r.n, 0) AS reaction_count,
		COALESCE(t.n, 0) AS thread_count
	FROM ids
	LEFT JOIN (
		SELECT moment_id, COUNT(*) AS n FROM reactions
		WHERE moment_id IN (SELECT id FROM ids) GROUP BY moment_id
	) r ON r.moment_id = ids.id
	LEFT JOIN (
		SELECT moment_id, COUNT(*) AS n FROM threads
		WHERE moment_id IN (SELECT id FROM ids) GROUP BY moment_id
	) t ON t.moment_id = ids.id`

// Aggregator attaches derived engagement counts to fetched moments.
// It never filters or reorders its input.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) Resolve(ctx context.Context, q querier, rows []momentRow) ([]model.MomentWithMetrics, error) {
	if len(rows) == 0 {
		return []model.MomentWithMetrics{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID.String()
	}

	res, err := q.Query(ctx, countsQuery, ids)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	counts := make(map[uuid.UUID]model.Counts, len(rows))
	for res.Next() {
		var (
			id uuid.UUID
			c  model.Counts
		)
		if err := res.Scan(&id, &c.Reactions, &c.Threads); err != nil {
			return nil, err
		}
		counts[id] = c
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	return decorate(rows, counts), nil
}

// decorate builds the metrics view of each row in input order. Missing counts are zero.
func decorate(rows []momentRow, counts map[uuid.UUID]model.Counts) []model.MomentWithMetrics {
	out := make([]model.MomentWithMetrics, len(rows))
	for i, row := range rows {
		var distance *int64
		if row.distance != nil {
			d := int64(math.Round(*row.distance))
			distance = &d
		}
		out[i] = model.WithMetrics(row.MomentWithOwnerInfo, counts[row.ID], distance)
	}
	return out
}
