package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminalCallStatus(t *testing.T) {
	assert.False(t, IsTerminalCallStatus(CallStatusInitiated))
	assert.False(t, IsTerminalCallStatus(CallStatusRinging))
	assert.False(t, IsTerminalCallStatus(CallStatusAnswered))

	assert.True(t, IsTerminalCallStatus(CallStatusRejected))
	assert.True(t, IsTerminalCallStatus(CallStatusMissed))
	assert.True(t, IsTerminalCallStatus(CallStatusCompleted))
}

func TestValidCallType(t *testing.T) {
	assert.True(t, ValidCallType(CallTypeVoice))
	assert.True(t, ValidCallType(CallTypeVideo))
	assert.False(t, ValidCallType("screen_share"))
	assert.False(t, ValidCallType(""))
}
