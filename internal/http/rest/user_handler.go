package rest

import (
	"net/http"

	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/bwise1/moment_stack/util"
	"github.com/bwise1/moment_stack/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) UserRoutes() chi.Router {
	mux := chi.NewRouter()
	mux.Method(http.MethodGet, "/{userID}/moments", Handler(api.GetUserMoments))
	return mux
}

// GetUserMoments lists one owner's moments with the page's locations encoded as a polyline trail.
func (api *API) GetUserMoments(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	filter, err := moments.ParseFilter(r.URL.Query())
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	page, err := api.Moments.ListByOwner(r.Context(), chi.URLParam(r, "userID"), filter)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "User moments fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       page,
	}
}
