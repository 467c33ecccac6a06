package moments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwise1/moment_stack/internal/db"
	"github.com/bwise1/moment_stack/internal/metrics"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const returningColumns = `
	id, user_id, title, description, photo_url, mood,
	ST_Y(location), ST_X(location),
	created_at, updated_at`

// Repository persists moments in PostGIS.
type Repository struct {
	db  *db.DB
	agg *Aggregator
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database, agg: NewAggregator()}
}

func (r *Repository) Create(ctx context.Context, m model.Moment) (created model.Moment, err error) {
	defer observe("create", time.Now(), &err)

	stmt := fmt.Sprintf(`
		INSERT INTO moments (id, user_id, title, description, photo_url, mood, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326), NOW(), NOW())
		RETURNING %s`, returningColumns)

	row := r.db.Pool().QueryRow(ctx, stmt,
		m.ID, m.OwnerID, m.Title, m.Description, m.PhotoURL, string(m.Mood),
		m.Location.Longitude, m.Location.Latitude,
	)
	created, err = scanMoment(row)
	if err != nil {
		return model.Moment{}, storeError("create moment", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (res model.MomentWithOwnerInfo, err error) {
	defer observe("get", time.Now(), &err)

	stmt := fmt.Sprintf(`SELECT %s FROM %s WHERE m.id = $1`, momentColumns, momentSource)
	res, err = scanMomentWithOwner(r.db.Pool().QueryRow(ctx, stmt, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MomentWithOwnerInfo{}, model.ErrNotFound
	}
	if err != nil {
		return model.MomentWithOwnerInfo{}, storeError("get moment", err)
	}
	return res, nil
}

// Update applies patch to the moment only when it belongs to ownerID.
func (r *Repository) Update(ctx context.Context, id, ownerID uuid.UUID, patch model.MomentPatch) (updated model.Moment, err error) {
	defer observe("update", time.Now(), &err)

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.PhotoURL != nil {
		set("photo_url", *patch.PhotoURL)
	}
	if patch.Mood != nil {
		set("mood", string(*patch.Mood))
	}
	if patch.Location != nil {
		args = append(args, patch.Location.Longitude, patch.Location.Latitude)
		sets = append(sets, fmt.Sprintf("location = ST_SetSRID(ST_MakePoint($%d, $%d), 4326)", len(args)-1, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, ownerID)

	stmt := fmt.Sprintf(`
		UPDATE moments SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args)-1, len(args), returningColumns)

	updated, err = scanMoment(r.db.Pool().QueryRow(ctx, stmt, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Moment{}, model.ErrNotFoundOrForbidden
	}
	if err != nil {
		return model.Moment{}, storeError("update moment", err)
	}
	return updated, nil
}

// Delete removes the moment when it belongs to ownerID and returns the removed
// record. The bool is false when nothing matched.
func (r *Repository) Delete(ctx context.Context, id, ownerID uuid.UUID) (removed model.Moment, deleted bool, err error) {
	defer observe("delete", time.Now(), &err)

	stmt := fmt.Sprintf(`DELETE FROM moments WHERE id = $1 AND user_id = $2 RETURNING %s`, returningColumns)
	removed, err = scanMoment(r.db.Pool().QueryRow(ctx, stmt, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Moment{}, false, nil
	}
	if err != nil {
		return model.Moment{}, false, storeError("delete moment", err)
	}
	return removed, true, nil
}

// ListMany returns moments matching f newest first, decorated with owner info and counts.
func (r *Repository) ListMany(ctx context.Context, f model.Filter) (res []model.MomentWithMetrics, err error) {
	defer observe("list", time.Now(), &err)

	p := newPredicates()
	p.applyFilter(f)
	where := p.where()
	page := p.page(f.Limit, f.Offset)

	stmt := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY m.created_at DESC, m.id DESC
		%s`, momentColumns, momentSource, where, page)

	err = r.db.RunInReadTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, stmt, p.args...)
		if err != nil {
			return err
		}
		found, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (momentRow, error) {
			m, err := scanMomentWithOwner(row)
			return momentRow{MomentWithOwnerInfo: m}, err
		})
		if err != nil {
			return err
		}
		res, err = r.agg.Resolve(ctx, tx, found)
		return err
	})
	if err != nil {
		return nil, storeError("list moments", err)
	}
	metrics.ObserveResults("list", len(res))
	return res, nil
}

func scanMoment(row pgx.Row) (model.Moment, error) {
	var (
		m    model.Moment
		mood string
	)
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.Description, &m.PhotoURL, &mood,
		&m.Location.Latitude, &m.Location.Longitude,
		&m.CreatedAt, &m.UpdatedAt,
	)
	m.Mood = model.Mood(mood)
	return m, err
}

// scanMomentWithOwner reads momentColumns plus any trailing extra destinations.
func scanMomentWithOwner(row pgx.Row, extra ...any) (model.MomentWithOwnerInfo, error) {
	var (
		m     model.Moment
		owner model.OwnerInfo
		mood  string
	)
	dest := []any{
		&m.ID, &m.OwnerID, &m.Title, &m.Description, &m.PhotoURL, &mood,
		&m.Location.Latitude, &m.Location.Longitude,
		&m.CreatedAt, &m.UpdatedAt,
		&owner.Username, &owner.AvatarURL,
	}
	err := row.Scan(append(dest, extra...)...)
	m.Mood = model.Mood(mood)
	return model.WithOwner(m, owner), err
}

func storeError(op string, err error) error {
	return &model.StoreError{Op: op, Err: err}
}

func observe(op string, start time.Time, err *error) {
	metrics.ObserveQuery(op, start, queryFailure(*err))
}

// queryFailure maps a repository result to the error recorded in metrics.
// A missing row is an answer, not a failed query.
func queryFailure(err error) error {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrNotFoundOrForbidden) {
		return nil
	}
	return err
}
