package api

import (
	"errors"
	"net/http"

	"placequery/internal/domain"
	"placequery/internal/job"
)

// httpStatusFromError maps domain and job-slot errors to HTTP status codes.
func httpStatusFromError(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, job.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, job.ErrNoJob):
		return http.StatusNotFound
	case errors.Is(err, job.ErrNotTerminal),
		errors.Is(err, job.ErrNotCancelled),
		errors.Is(err, job.ErrGraceNotExpired),
		errors.Is(err, job.ErrNoResult):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
