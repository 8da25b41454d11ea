package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/validation"
)

type createTagRequest struct {
	Name  string `json:"name" validate:"notblank,max=128"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Index int    `json:"index" validate:"gte=-1"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(createTagRequest{Name: "Landscape", Color: "#aabbcc"}))
	assert.NoError(t, v.Validate(createTagRequest{Name: "Landscape", Index: -1}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       createTagRequest
		wantField string
		wantMsg   string
	}{
		{"blank name", createTagRequest{Name: "   "}, "name", "must not be blank"},
		{"empty name", createTagRequest{Name: ""}, "name", "must not be blank"},
		{"bad color", createTagRequest{Name: "a", Color: "red"}, "color", "must be a hex color like #aabbcc"},
		{"index below append sentinel", createTagRequest{Name: "a", Index: -2}, "index", "must be greater than or equal to -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("value", "jpg", "oneof=jpg png"))

	err := v.Var("value", "bmp", "oneof=jpg png")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
