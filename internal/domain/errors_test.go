package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailKindOf(t *testing.T) {
	cause := errors.New("net::ERR_TIMED_OUT")

	assert.Equal(t, FailBlocked, FailKindOf(NavFail(FailBlocked, cause)))
	assert.Equal(t, FailNotFound, FailKindOf(fmt.Errorf("step 3: %w", NavFail(FailNotFound, cause))))

	// Unclassified errors default to the only retryable kind.
	assert.Equal(t, FailTimeout, FailKindOf(cause))
}

func TestNavErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NavFail(FailStructureChanged, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "structure_changed")
}

func TestRetryable(t *testing.T) {
	assert.True(t, FailTimeout.Retryable())
	assert.True(t, FailBlocked.Retryable())
	assert.False(t, FailNotFound.Retryable())
	assert.False(t, FailStructureChanged.Retryable())
}
