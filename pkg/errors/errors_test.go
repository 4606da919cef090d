package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("restore: %w", Clone(ErrConflict, "roll number taken"))
	got := FromError(wrapped)
	assert.Equal(t, "CONFLICT", got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Equal(t, "roll number taken", got.Message)
}

func TestFromErrorHidesUntypedCause(t *testing.T) {
	cause := errors.New("disk full")
	got := FromError(cause)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, ErrInternal.Message, got.Message)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "student not found")
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, "student not found", clone.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestIsComparesCodes(t *testing.T) {
	err := Wrap(errors.New("timeout"), ErrStorage.Code, ErrStorage.Status, "failed to persist student")
	assert.True(t, Is(err, ErrStorage))
	assert.False(t, Is(err, ErrInternal))
	assert.False(t, Is(errors.New("plain"), ErrStorage))
	assert.Equal(t, "failed to persist student: timeout", err.Error())
}
