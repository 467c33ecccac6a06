package moments

import (
	"fmt"
	"strings"

	"github.com/bwise1/moment_stack/internal/model"
)

// momentColumns selects a moment joined with its owner, aliased m and u.
const momentColumns = `
	m.id, m.user_id, m.title, m.description, m.photo_url, m.mood,
	ST_Y(m.location) AS latitude,
	ST_X(m.location) AS longitude,
	m.created_at, m.updated_at,
	COALESCE(u.username, '') AS username,
	COALESCE(u.avatar_url, '') AS avatar_url`

const momentSource = `moments m LEFT JOIN users u ON u.id = m.user_id`

// predicates accumulates WHERE clauses and their positional arguments.
type predicates struct {
	clauses []string
	args    []any
}

func newPredicates(args ...any) *predicates {
	return &predicates{args: args}
}

// add appends a clause whose single %d verb is replaced by the argument's position.
func (p *predicates) add(format string, arg any) {
	p.args = append(p.args, arg)
	p.clauses = append(p.clauses, fmt.Sprintf(format, len(p.args)))
}

// raw appends a clause that references arguments already present.
func (p *predicates) raw(clause string) {
	p.clauses = append(p.clauses, clause)
}

func (p *predicates) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.clauses, " AND ")
}

// page appends LIMIT and OFFSET placeholders and returns the clause.
func (p *predicates) page(limit, offset int) string {
	p.args = append(p.args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(p.args)-1, len(p.args))
}

// applyFilter adds the mood, time range and owner constraints shared by listing
// and proximity queries.
func (p *predicates) applyFilter(f model.Filter) {
	if len(f.Moods) > 0 {
		moods := make([]string, len(f.Moods))
		for i, m := range f.Moods {
			moods[i] = string(m)
		}
		p.add("m.mood = ANY($%d)", moods)
	}
	if f.StartDate != nil {
		p.add("m.created_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		p.add("m.created_at <= $%d", *f.EndDate)
	}
	if f.OwnerID != nil {
		p.add("m.user_id = $%d", *f.OwnerID)
	}
}
