package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"pglens/internal/database"
	"pglens/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing connection", fmt.Errorf("%w: x", services.ErrConnectionNotFound), http.StatusNotFound},
		{"missing query", services.ErrQueryNotFound, http.StatusNotFound},
		{"missing table", services.ErrTableNotFound, http.StatusNotFound},
		{"duplicate", services.ErrDuplicateConnection, http.StatusConflict},
		{"invalid", services.ErrInvalidConnection, http.StatusBadRequest},
		{"empty query", services.ErrEmptyQuery, http.StatusBadRequest},
		{"unreachable", &database.ConnectivityError{Host: "h", Port: 1, Database: "d", Err: errors.New("refused")}, http.StatusBadGateway},
		{"probe failed", &database.QueryError{Op: "tables", Err: &pgconn.PgError{Message: "denied"}}, http.StatusUnprocessableEntity},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", &database.UnknownError{Message: "unknown error", Cause: "boom"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
