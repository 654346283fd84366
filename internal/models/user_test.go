package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeCreateAssignsID(t *testing.T) {
	u := &User{TelegramID: 42}
	require.NoError(t, u.BeforeCreate(nil))

	_, err := uuid.Parse(u.ID)
	assert.NoError(t, err, "generated ID should be a UUID")
}

func TestBeforeCreateKeepsExistingID(t *testing.T) {
	u := &User{ID: "preset-id"}
	require.NoError(t, u.BeforeCreate(nil))
	assert.Equal(t, "preset-id", u.ID)
}
