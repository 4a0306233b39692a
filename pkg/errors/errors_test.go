package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeContract(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		message   bool
		details   bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true, true},
		{CodeNotFound, http.StatusNotFound, false, true, false},
		{CodeConflict, http.StatusConflict, false, true, false},
		{CodeCapacityExceeded, http.StatusConflict, false, true, true},
		{CodeIdempotency, http.StatusConflict, false, true, true},
		{CodeInternal, http.StatusInternalServerError, true, false, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.code.HTTPStatus())
			assert.Equal(t, tt.retryable, tt.code.Retryable())
			assert.Equal(t, tt.message, tt.code.ExposesMessage())
			assert.Equal(t, tt.details, tt.code.ExposesDetails())
			assert.NotEmpty(t, tt.code.PublicMessage())
		})
	}
}

func TestUnknownCodeBehavesAsInternal(t *testing.T) {
	code := Code("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, code.HTTPStatus())
	assert.False(t, code.ExposesMessage())
}

func TestWrapKeepsCauseInChain(t *testing.T) {
	cause := stdErrors.New("connection refused")
	wrapped := Wrap(CodeDependency, cause, "fetch exchange rates")

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: fetch exchange rates: connection refused", wrapped.Error())

	outer := fmt.Errorf("refresh: %w", wrapped)
	require.NotNil(t, As(outer))
	assert.True(t, HasCode(outer, CodeDependency))
	assert.False(t, HasCode(outer, CodeValidation))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestWithDetailsOnNilIsSafe(t *testing.T) {
	var e *Error
	assert.Nil(t, e.WithDetails("x"))
	assert.Equal(t, CodeInternal, e.Code())

	typed := Newf(CodeCapacityExceeded, "at most %d presets can be saved", 10).WithDetails(map[string]int{"max": 10})
	assert.Equal(t, "at most 10 presets can be saved", typed.Message())
	assert.Equal(t, map[string]int{"max": 10}, typed.Details())
}

func TestLogFieldsIncludesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_rate_brackets_upper_bound", TableName: "rate_brackets"}
	fields := LogFields(Wrap(CodeConflict, pgErr, "create rate type"))

	assert.Equal(t, "CONFLICT", fields["error_code"])
	assert.Equal(t, "23505", fields["pg_code"])
	assert.Equal(t, "uq_rate_brackets_upper_bound", fields["pg_constraint"])
	assert.NotContains(t, fields, "pg_detail")
	assert.Len(t, fields["error_chain"], 2)

	pqFields := LogFields(&pq.Error{Code: "23503", Table: "factory_cost_items"})
	assert.Equal(t, "23503", pqFields["pg_code"])
	assert.NotContains(t, pqFields, "error_code")

	assert.Empty(t, LogFields(nil))
}
