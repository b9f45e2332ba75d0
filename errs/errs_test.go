package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := E(KindNotFound, "Photo %d not found", 7)

	assert.True(t, errors.Is(err, NotFound))
	assert.False(t, errors.Is(err, Validation))
	assert.Equal(t, "Photo 7 not found", MessageOf(err))

	wrapped := fmt.Errorf("get photo: %w", err)
	assert.True(t, errors.Is(wrapped, NotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindStorage, cause, "Failed to store image")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, Storage)
	assert.Contains(t, err.Error(), "disk full")
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.StatusCode())
	assert.Equal(t, http.StatusBadRequest, KindConflict.StatusCode())
	assert.Equal(t, http.StatusNotFound, KindNotFound.StatusCode())
	assert.Equal(t, http.StatusInternalServerError, KindStorage.StatusCode())
	assert.Equal(t, http.StatusInternalServerError, KindOf(errors.New("boom")).StatusCode())
	assert.Equal(t, "Internal server error", MessageOf(errors.New("boom")))
}
