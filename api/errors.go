package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"boardify-api/domain"
)

var errDuplicateRequest = errors.New("duplicate request")

// statusFor maps domain errors to an HTTP status and a client-facing detail.
func statusFor(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrBoardNotFound):
		return http.StatusNotFound, "Board not found"
	case errors.Is(err, domain.ErrTicketNotFound):
		return http.StatusNotFound, "Ticket not found"
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusBadRequest, "Username already registered"
	case errors.Is(err, domain.ErrBoardHasNoStages):
		return http.StatusBadRequest, "Board has no stages"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, domain.ErrRegistrationDisabled):
		return http.StatusForbidden, "Registration is disabled"
	case errors.Is(err, errDuplicateRequest):
		return http.StatusConflict, "Duplicate request"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError renders err as {"detail": ...}. Unclassified errors are logged
// and never echoed to the client.
func writeError(c echo.Context, stage string, err error) error {
	status, detail := statusFor(err)
	if m := metricsFrom(c); m != nil {
		m.SetErrorStage(stage)
		m.SetError(err)
	}
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request().Method,
			"route":  c.Path(),
			"stage":  stage,
		}).Error("request failed")
	}
	return c.JSON(status, errorResponse{Detail: detail})
}

func badRequest(c echo.Context, stage, detail string) error {
	if m := metricsFrom(c); m != nil {
		m.SetErrorStage(stage)
	}
	return c.JSON(http.StatusBadRequest, errorResponse{Detail: detail})
}
