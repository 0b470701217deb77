package entity

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFoundf("order x not found"), http.StatusNotFound},
		{Conflictf("already paid"), http.StatusConflict},
		{Invalidf("bad quantity"), http.StatusBadRequest},
		{Externalf("unable to validate products"), http.StatusBadGateway},
		{Internalf("boom"), http.StatusInternalServerError},
		{errors.New("raw"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFoundf("gone")), http.StatusNotFound},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusCode(c.err), "for %v", c.err)
	}
}

func TestKindMessageSurfaces(t *testing.T) {
	err := NotFoundf("order %s not found", "abc")
	assert.Equal(t, "order abc not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("PAID")
	assert.NoError(t, err)
	assert.Equal(t, StatusPaid, st)

	_, err = ParseStatus("SHIPPED")
	assert.True(t, errors.Is(err, ErrValidation))
}
