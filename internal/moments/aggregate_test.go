package moments

import (
	"testing"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowFor(title string, distance *float64) momentRow {
	m := model.Moment{ID: uuid.New(), Title: title, Mood: model.MoodHappy}
	return momentRow{
		MomentWithOwnerInfo: model.WithOwner(m, model.OwnerInfo{Username: "ana"}),
		distance:            distance,
	}
}

func TestDecoratePreservesOrderAndDefaultsCounts(t *testing.T) {
	rows := []momentRow{rowFor("c", nil), rowFor("a", nil), rowFor("b", nil)}
	counts := map[uuid.UUID]model.Counts{
		rows[1].ID: {Reactions: 4, Threads: 1},
	}

	out := decorate(rows, counts)

	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].Title)
	assert.Equal(t, "a", out[1].Title)
	assert.Equal(t, "b", out[2].Title)
	assert.Equal(t, model.Counts{}, out[0].Counts)
	assert.Equal(t, model.Counts{Reactions: 4, Threads: 1}, out[1].Counts)
	assert.Equal(t, "ana", out[1].Username)
	for _, m := range out {
		assert.Nil(t, m.DistanceMeters)
	}
}

func TestDecorateRoundsDistance(t *testing.T) {
	d := []float64{0, 0.4999, 12.5, 99.49, 1000}
	rows := make([]momentRow, len(d))
	for i := range d {
		rows[i] = rowFor("m", &d[i])
	}

	out := decorate(rows, nil)

	want := []int64{0, 0, 13, 99, 1000}
	for i, m := range out {
		require.NotNil(t, m.DistanceMeters)
		assert.Equal(t, want[i], *m.DistanceMeters)
	}
}

func TestDecorateEmpty(t *testing.T) {
	assert.Empty(t, decorate(nil, nil))
}
