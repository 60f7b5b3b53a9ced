package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepositoryError(t *testing.T) {
	assert.Nil(t, NewRepositoryError("find", nil))

	err := NewRepositoryError("find listings", context.DeadlineExceeded)
	wrapped := fmt.Errorf("search: %w", err)

	assert.True(t, IsRepositoryError(wrapped))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.Equal(t, "repository find listings: context deadline exceeded", err.Error())
	assert.False(t, IsRepositoryError(ErrNotFound))
	assert.False(t, IsRepositoryError(errors.New("plain")))
}

func TestListingStatusPublic(t *testing.T) {
	assert.True(t, StatusForSale.Public())
	assert.True(t, StatusForRent.Public())
	assert.True(t, StatusBoth.Public())
	assert.False(t, StatusSold.Public())
	assert.False(t, StatusOffMarket.Public())
}
