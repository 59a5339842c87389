package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBucket(t *testing.T) {
	assert.Equal(t, 202601, CalculateBucket(time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 202612, CalculateBucket(time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCalculateBucket_MonthBoundary(t *testing.T) {
	endOfMonth := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)
	startOfNext := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 202603, CalculateBucket(endOfMonth))
	assert.Equal(t, 202604, CalculateBucket(startOfNext))
}
