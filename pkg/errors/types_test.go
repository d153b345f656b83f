package errors

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodeSurvivesWrapping(t *testing.T) {
	err := EmptyResultError("Pod", "default")
	wrapped := Wrap(err, "resolving table")

	assert.True(t, IsErrorCode(wrapped, ErrorCodeEmptyResult))
	assert.Equal(t, ErrorCodeEmptyResult, GetErrorCode(wrapped))
	assert.Contains(t, wrapped.Error(), "no items found")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, WrapCode(nil, ErrorCodeFetch, "ignored"))
}

func TestGetErrorCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, ErrorCodeInternal, GetErrorCode(pkgerrors.New("plain")))
}

func TestFetchErrorMessage(t *testing.T) {
	err := FetchError(pkgerrors.New("connection refused"), "Pod", "team-a")
	assert.True(t, IsErrorCode(err, ErrorCodeFetch))
	assert.Contains(t, err.Error(), "resource 'Pod' in namespace 'team-a'")
	assert.Contains(t, err.Error(), "connection refused")
}
