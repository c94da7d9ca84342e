package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublicityIsActive(t *testing.T) {
	begin := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := begin.Add(72 * time.Hour)
	p := &Publicity{IsPublished: true, Begin: begin, End: end}

	assert.False(t, p.IsActive(begin.Add(-time.Second)))
	assert.True(t, p.IsActive(begin))
	assert.True(t, p.IsActive(end.Add(-time.Second)))
	assert.False(t, p.IsActive(end))
}

func TestPublicityIsActiveUnpublished(t *testing.T) {
	begin := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Publicity{Begin: begin, End: begin.Add(72 * time.Hour)}

	assert.False(t, p.IsActive(begin.Add(time.Hour)))
}

func TestPublicityIsAppealable(t *testing.T) {
	begin := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := begin.Add(72 * time.Hour)
	p := &Publicity{Begin: begin, End: end}

	// Appeals stay open through the end instant itself.
	assert.True(t, p.IsAppealable(end))
	assert.False(t, p.IsAppealable(end.Add(time.Second)))
	assert.True(t, p.IsAppealable(begin.Add(-time.Hour)))
}
