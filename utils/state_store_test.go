package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateIsSingleUse(t *testing.T) {
	SaveState("state-abc", time.Minute)

	assert.True(t, ConsumeState("state-abc"))
	assert.False(t, ConsumeState("state-abc"), "state must not be reusable")
}

func TestConsumeUnknownState(t *testing.T) {
	assert.False(t, ConsumeState("never-saved"))
}

func TestConsumeExpiredState(t *testing.T) {
	SaveState("state-old", time.Nanosecond)
	time.Sleep(2 * time.Millisecond)
	assert.False(t, ConsumeState("state-old"))
}
