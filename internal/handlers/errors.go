package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pglens/internal/database"
	"pglens/internal/responses"
	"pglens/internal/services"
)

// statusFor maps service and database errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		connErr  *database.ConnectivityError
		queryErr *database.QueryError
	)

	switch {
	case errors.Is(err, services.ErrConnectionNotFound),
		errors.Is(err, services.ErrQueryNotFound),
		errors.Is(err, services.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateConnection):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidConnection), errors.Is(err, services.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.As(err, &connErr):
		return http.StatusBadGateway
	case errors.As(err, &queryErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	responses.Fail(c, statusFor(err), err, message)
}
