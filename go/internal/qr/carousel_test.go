package qr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/gdsync/go/internal/models"
)

func TestNewCarouselEmpty(t *testing.T) {
	_, err := NewCarousel(nil, time.Now())
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestNewCarouselStartsAtFirstUsable(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	codes := []models.QRCode{
		{ID: "expired", IsActive: true, IsExpired: true},
		{ID: "full", IsActive: true, MaxCapacity: 15, CurrentUsage: 15},
		{ID: "usable", IsActive: true, MaxCapacity: 15, CurrentUsage: 2},
		{ID: "later", IsActive: true, MaxCapacity: 15},
	}

	c, err := NewCarousel(codes, now)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Index())
	assert.Equal(t, "usable", c.Current().ID)
	assert.Equal(t, 4, c.Len())
}

func TestNewCarouselNoUsableFallsBackToFirst(t *testing.T) {
	now := time.Now()
	codes := []models.QRCode{
		{ID: "a", IsExpired: true},
		{ID: "b", IsExpired: true},
	}

	c, err := NewCarousel(codes, now)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Index())
}

func TestCarouselNavigation(t *testing.T) {
	now := time.Now()
	codes := []models.QRCode{
		{ID: "a", IsActive: true},
		{ID: "b", IsActive: true},
		{ID: "c", IsActive: true},
	}
	c, err := NewCarousel(codes, now)
	require.NoError(t, err)

	assert.False(t, c.Prev(), "already at the first entry")

	assert.True(t, c.Next())
	assert.True(t, c.Next())
	assert.Equal(t, "c", c.Current().ID)
	assert.False(t, c.Next(), "already at the last entry")

	assert.True(t, c.Prev())
	assert.Equal(t, "b", c.Current().ID)

	assert.True(t, c.GoTo(0))
	assert.Equal(t, "a", c.Current().ID)
	assert.False(t, c.GoTo(-1))
	assert.False(t, c.GoTo(3))
	assert.Equal(t, "a", c.Current().ID)
}
