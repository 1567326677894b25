package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rumbo/internal/repository"
	"rumbo/internal/service"
)

// DataResponse is the canonical success envelope: every payload travels
// under "data".
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse carries a machine-readable kind plus a human message.
type ErrorResponse struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

// Error kinds, one per error class the presentation layer renders.
const (
	kindValidation   = "validation_error"
	kindNotFound     = "not_found"
	kindForbidden    = "forbidden"
	kindInvalidState = "invalid_state"
	kindCapacity     = "capacity_error"
	kindConflict     = "conflict"
	kindInternal     = "internal_error"
)

// respondData sends a success payload in the data envelope.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, DataResponse{Data: data})
}

// respondError sends an error with its HTTP status and kind.
func respondError(c *gin.Context, err error) {
	code, kind := classifyError(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Do not leak internals.
		message = "internal error"
	}
	c.JSON(code, ErrorResponse{Kind: kind, Message: message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Kind: kindValidation, Message: message})
}

// classifyError maps service/repository errors to an HTTP status and an
// error kind.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, kindNotFound

	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrMissingRoute),
		errors.Is(err, service.ErrMissingSchedule),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidSeatsRequested),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrSelfRating),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrMissingFullName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrMissingPassword):
		return http.StatusBadRequest, kindValidation

	case errors.Is(err, service.ErrNotTripDriver),
		errors.Is(err, service.ErrNotTripParticipant),
		errors.Is(err, service.ErrDriverOwnTrip):
		return http.StatusForbidden, kindForbidden

	case errors.Is(err, service.ErrWrongPassword):
		return http.StatusUnauthorized, kindForbidden

	case errors.Is(err, service.ErrTripNotPending),
		errors.Is(err, service.ErrTripNotInProgress),
		errors.Is(err, service.ErrTripNotCompleted):
		return http.StatusConflict, kindInvalidState

	case errors.Is(err, service.ErrNotEnoughSeats):
		return http.StatusConflict, kindCapacity

	case errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrAlreadyReserved),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, kindConflict

	// Transient: the reservation lock is held. Retryable.
	case errors.Is(err, service.ErrTripBusy):
		return http.StatusServiceUnavailable, kindConflict

	default:
		return http.StatusInternalServerError, kindInternal
	}
}
