package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := IndexOutOfRange(12, 3)

	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.False(t, errors.Is(err, ErrNoDataset))
	assert.Equal(t, 12, err.Details["index"])
	assert.Equal(t, 3, err.Details["length"])
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading netflix: %w", EmptyDataset("netflix_titles.csv"))

	assert.True(t, errors.Is(wrapped, ErrEmptyDataset))
	assert.Equal(t, ErrCodeEmptyDataset, CodeOf(wrapped))
}

func TestAppError_ErrorString(t *testing.T) {
	plain := New(ErrCodeBadRequest, "bad input")
	assert.Equal(t, "BAD_REQUEST: bad input", plain.Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeCacheError, "cache operation failed")
	assert.Equal(t, "CACHE_ERROR: cache operation failed - connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestConstructorsDoNotMutateSentinels(t *testing.T) {
	_ = UnknownDataset("movies")
	_ = RecordNotFound("abc")

	assert.Nil(t, ErrUnknownDataset.Details)
	assert.Nil(t, ErrRecordNotFound.Details)
}

func TestGetAppError(t *testing.T) {
	appErr, ok := GetAppError(fmt.Errorf("outer: %w", SourceUnavailable("s3://b/k", errors.New("denied"))))
	require.True(t, ok)
	assert.Equal(t, ErrCodeSourceUnavailable, appErr.Code)
	assert.Equal(t, "s3://b/k", appErr.Details["handle"])

	_, ok = GetAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsAppError(errors.New("plain")))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}
