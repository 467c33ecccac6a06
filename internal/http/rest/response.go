package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/bwise1/moment_stack/util"
	"github.com/bwise1/moment_stack/util/storage"
	"github.com/bwise1/moment_stack/util/tracing"
	"github.com/bwise1/moment_stack/util/values"
	"go.uber.org/zap"
)

type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	fields := []zap.Field{
		zap.String("request_id", tc.RequestID),
		zap.String("request_source", tc.RequestSource),
		zap.String("status", status),
		zap.Error(err),
	}
	if util.StatusCode(status) >= http.StatusInternalServerError {
		zap.L().Error(message, fields...)
	} else {
		zap.L().Debug(message, fields...)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

// respondWithDomainError maps service errors onto response statuses. Store
// failures are logged in full and surface only as a generic message.
func respondWithDomainError(err error, tc *tracing.Context) *ServerResponse {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		resp := respondWithError(err, ve.Message, values.BadRequestBody, tc)
		if ve.Field != "" {
			resp.Data = map[string]string{"field": ve.Field}
		}
		return resp
	case errors.Is(err, model.ErrNotFound):
		return respondWithError(err, "Moment not found", values.NotFound, tc)
	case errors.Is(err, model.ErrNotFoundOrForbidden):
		return respondWithError(err, "Moment not found or you do not have permission to modify it", values.NotFound, tc)
	case errors.Is(err, model.ErrUserNotFound):
		return respondWithError(err, "User not found", values.NotFound, tc)
	case errors.Is(err, model.ErrEmailTaken):
		return respondWithError(err, "Email already exists", values.Conflict, tc)
	case errors.Is(err, model.ErrUsernameTaken):
		return respondWithError(err, "Username already taken", values.Conflict, tc)
	case errors.Is(err, model.ErrInvalidCredentials):
		return respondWithError(err, "Invalid credentials", values.NotAuthorised, tc)
	case moments.IsStoreError(err):
		return respondWithError(err, values.SystemErr, values.Error, tc)
	case errors.Is(err, storage.ErrNotConfigured):
		return respondWithError(err, "Photo uploads are not available", values.Unavailable, tc)
	default:
		return respondWithError(err, values.SystemErr, values.Error, tc)
	}
}

func writeJSONResponse(w http.ResponseWriter, content []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(content); err != nil {
		zap.L().Warn("unable to write json response", zap.Error(err))
	}
}

// writeErrorResponse is used by middleware that runs before a Handler.
func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	zap.L().Debug(message, zap.String("status", status), zap.Error(err))
	content, _ := json.Marshal(ServerResponse{Message: message, Status: status})
	writeJSONResponse(w, content, util.StatusCode(status))
}
