package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	base := errors.New("boom")
	e := New(http.StatusNotFound, "file_not_found", base)
	assert.Equal(t, "boom", e.Error())
	assert.ErrorIs(t, e, base)
	assert.Equal(t, "file_not_found", New(http.StatusNotFound, "file_not_found", nil).Error())

	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("wrapped: %w", e)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(base))
}
