package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithProvider("openai")

	assert.Equal(t, ErrUpstreamError, GetErrorCode(err))
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "[UPSTREAM_ERROR] upstream failed: root", err.Error())
}

func TestError_HelpersSeeThroughWrapping(t *testing.T) {
	t.Parallel()

	contract := fmt.Errorf("generate: %w", NewContractError("messages must not be empty"))
	assert.True(t, IsContractViolation(contract))
	assert.False(t, IsEmptyResponse(contract))

	empty := fmt.Errorf("embed: %w", NewEmptyResponseError("ollama"))
	assert.True(t, IsEmptyResponse(empty))
	assert.ErrorIs(t, empty, ErrEmpty)
	assert.Contains(t, empty.Error(), EmptyResponseMessage)

	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestNewContractError_FormatsMessage(t *testing.T) {
	t.Parallel()

	err := NewContractError("maxResults must be >= 1, got %d", 0)
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidRequest, err.Code)
	assert.Equal(t, "maxResults must be >= 1, got 0", err.Message)
}

func TestIsContractViolation_IgnoresProviderBadRequest(t *testing.T) {
	t.Parallel()

	upstream := NewError(ErrInvalidRequest, "bad model").WithHTTPStatus(400).WithProvider("openai")
	assert.False(t, IsContractViolation(upstream))
	assert.Equal(t, ErrInvalidRequest, GetErrorCode(upstream))
}
