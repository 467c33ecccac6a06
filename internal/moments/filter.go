package moments

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/util"
	"github.com/google/uuid"
)

// Query parameter names. Aliases are tried in order and the first non-empty value wins.
var (
	moodParams      = []string{"moods", "moods[]", "mood"}
	latitudeParams  = []string{"lat", "latitude"}
	longitudeParams = []string{"lng", "longitude"}
	radiusParams    = []string{"radius", "radius_meters"}
)

// ParseFilter turns raw listing query parameters into a validated Filter.
// Invalid values fail with a *model.ValidationError; absent values take defaults.
func ParseFilter(q url.Values) (model.Filter, error) {
	f := model.Filter{
		Moods:  parseMoods(q),
		Limit:  model.DefaultLimit,
		Offset: model.DefaultOffset,
	}

	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		t, err := util.ParseTimestamp(v)
		if err != nil {
			return model.Filter{}, model.NewValidationError("start_date", "Invalid start_date format. Use ISO 8601 format")
		}
		f.StartDate = &t
	}

	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		t, err := util.ParseTimestamp(v)
		if err != nil {
			return model.Filter{}, model.NewValidationError("end_date", "Invalid end_date format. Use ISO 8601 format")
		}
		f.EndDate = &t
	}

	if v := strings.TrimSpace(q.Get("user_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return model.Filter{}, model.NewValidationError("user_id", "user_id must be a valid identifier")
		}
		f.OwnerID = &id
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > model.MaxLimit {
			return model.Filter{}, model.NewValidationError("limit", "Limit must be between 1 and %d", model.MaxLimit)
		}
		f.Limit = n
	}

	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.Filter{}, model.NewValidationError("offset", "Offset must be non-negative")
		}
		f.Offset = n
	}

	return f, nil
}

// ParseNearbyFilter is ParseFilter plus the query point and radius.
func ParseNearbyFilter(q url.Values) (model.NearbyFilter, error) {
	latRaw, lngRaw := first(q, latitudeParams), first(q, longitudeParams)
	if latRaw == "" || lngRaw == "" {
		return model.NearbyFilter{}, model.NewValidationError("latitude", "Latitude and longitude are required")
	}

	lat, err := parseCoordinate(latRaw)
	if err != nil || lat < -90 || lat > 90 {
		return model.NearbyFilter{}, model.NewValidationError("latitude", "Invalid latitude. Must be between -90 and 90")
	}
	lng, err := parseCoordinate(lngRaw)
	if err != nil || lng < -180 || lng > 180 {
		return model.NearbyFilter{}, model.NewValidationError("longitude", "Invalid longitude. Must be between -180 and 180")
	}

	radius := model.DefaultRadiusMeters
	if v := first(q, radiusParams); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > model.MaxRadiusMeters {
			return model.NearbyFilter{}, model.NewValidationError("radius", "Radius must be between 1 and %d meters", model.MaxRadiusMeters)
		}
		radius = n
	}

	f, err := ParseFilter(q)
	if err != nil {
		return model.NearbyFilter{}, err
	}

	return model.NearbyFilter{
		Filter:       f,
		Point:        model.Location{Latitude: lat, Longitude: lng},
		RadiusMeters: radius,
	}, nil
}

// parseMoods keeps recognised moods in first-seen order. Values may repeat the
// key or be comma separated.
func parseMoods(q url.Values) []model.Mood {
	var moods []model.Mood
	seen := make(map[model.Mood]bool)
	for _, key := range moodParams {
		for _, raw := range q[key] {
			for _, part := range strings.Split(raw, ",") {
				m, ok := model.ParseMood(part)
				if !ok || seen[m] {
					continue
				}
				seen[m] = true
				moods = append(moods, m)
			}
		}
	}
	return moods
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func first(q url.Values, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}
