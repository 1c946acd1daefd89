package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/study-tracker/internal/export"
	sharederrors "github.com/focusnest/study-tracker/internal/platform/errors"
	"github.com/focusnest/study-tracker/internal/progress"
	"github.com/focusnest/study-tracker/internal/reward"
)

type errorResponse = sharederrors.ErrorResponse

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, sharederrors.ToStatusCode(code), errorResponse{Code: code, Message: message, RequestID: middleware.GetReqID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, progress.ErrUnknownWeek), errors.Is(err, progress.ErrUnknownItem):
		writeError(w, r, sharederrors.CodeNotFound, err.Error())
	case errors.Is(err, progress.ErrBlockOutOfRange),
		errors.Is(err, progress.ErrRewardIndex),
		errors.Is(err, progress.ErrInvalidStructure),
		errors.Is(err, progress.ErrEmptyPatch):
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, progress.ErrReadOnly), errors.Is(err, export.ErrDisabled):
		writeError(w, r, sharederrors.CodeUnavailable, err.Error())
	case errors.Is(err, reward.ErrSpinInFlight):
		writeError(w, r, sharederrors.CodeConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, sharederrors.CodeTimeout, "request cancelled")
	default:
		writeError(w, r, sharederrors.CodeInternal, "internal server error")
	}
}
