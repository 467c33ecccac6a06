package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/bwise1/moment_stack/util"
	"github.com/bwise1/moment_stack/util/storage"
	"github.com/bwise1/moment_stack/util/values"
	"github.com/go-chi/chi/v5"
)

const maxPhotoBytes = 10 << 20

func (api *API) MomentRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/", Handler(api.ListMoments))
	mux.Method(http.MethodGet, "/nearby", Handler(api.GetNearbyMoments))
	mux.Method(http.MethodGet, "/{id}", Handler(api.GetMomentByID))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/", Handler(api.CreateMoment))
		r.Method(http.MethodPost, "/photos", Handler(api.UploadMomentPhoto))
		r.Method(http.MethodPut, "/{id}", Handler(api.UpdateMoment))
		r.Method(http.MethodDelete, "/{id}", Handler(api.DeleteMoment))
	})

	return mux
}

func (api *API) CreateMoment(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	var req model.CreateMomentRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	moment, err := api.Moments.Create(r.Context(), userID, req)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Moment created successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       moment,
	}
}

func (api *API) ListMoments(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	filter, err := moments.ParseFilter(r.URL.Query())
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	page, err := api.Moments.List(r.Context(), filter)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Moments fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       page,
	}
}

func (api *API) GetNearbyMoments(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	filter, err := moments.ParseNearbyFilter(r.URL.Query())
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	page, err := api.Moments.FindNearby(r.Context(), filter)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Nearby moments fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       page,
	}
}

func (api *API) GetMomentByID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	moment, err := api.Moments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Moment fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       moment,
	}
}

func (api *API) UpdateMoment(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	var req model.UpdateMomentRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	moment, err := api.Moments.Update(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Moment updated successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       moment,
	}
}

func (api *API) DeleteMoment(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	deleted, err := api.Moments.Delete(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}
	if !deleted {
		return respondWithError(model.ErrNotFoundOrForbidden,
			"Moment not found or you do not have permission to delete it", values.NotFound, &tc)
	}

	return &ServerResponse{
		Message:    "Moment deleted successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

// UploadMomentPhoto stores a multipart "photo" image and returns a URL usable as photo_url.
func (api *API) UploadMomentPhoto(w http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := util.TracingFromContext(r.Context())

	if api.Photos == nil {
		return respondWithDomainError(storage.ErrNotConfigured, &tc)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return respondWithError(err, "Photo must be 10MB or smaller", values.BadRequestBody, &tc)
		}
		return respondWithError(err, "unable to parse multipart form", values.BadRequestBody, &tc)
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		return respondWithError(err, "photo file is required", values.BadRequestBody, &tc)
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return respondWithError(errors.New(ct), "photo must be an image", values.BadRequestBody, &tc)
	}

	url, err := api.Photos.UploadImage(r.Context(), file, storage.MomentPhotoFolder)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Photo uploaded successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       map[string]string{"photo_url": url},
	}
}
