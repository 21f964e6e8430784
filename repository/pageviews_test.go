package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateKey(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 58, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-09", dateKey(ts))

	assert.Equal(t, "2025-12-01", dateKey(time.Date(2025, 12, 1, 0, 0, 1, 0, time.UTC)))
}
