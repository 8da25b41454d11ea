package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeInconsistent, http.StatusConflict},
		{CodeCycle, http.StatusUnprocessableEntity},
		{CodeValidation, http.StatusBadRequest},
		{CodeTooManyCalls, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := Cyclef("cannot move %s below itself", "col-1")
	assert.True(t, Is(err, ErrCycle))
	assert.False(t, Is(err, ErrInconsistent))
	assert.Equal(t, "cannot move col-1 below itself", err.Error())

	wrapped := fmt.Errorf("move collection: %w", Inconsistentf("unknown target %q", "x"))
	assert.True(t, Is(wrapped, ErrInconsistent))

	var domainErr *Error
	assert.True(t, As(wrapped, &domainErr))
	assert.Equal(t, CodeInconsistent, domainErr.Code)
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeValidation, "parse seed document")

	assert.Equal(t, "parse seed document: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestValidationWithDetails(t *testing.T) {
	err := ValidationWithDetails("invalid request", map[string]string{"name": "required"})
	assert.Equal(t, map[string]string{"name": "required"}, err.Details)
	assert.True(t, Is(err, ErrValidation))
}
