package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickWaitsForInterval(t *testing.T) {
	p := NewProfilerWithInterval(time.Hour)

	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
}

func TestTickLogsWhenIntervalElapsed(t *testing.T) {
	p := NewProfilerWithInterval(0)

	assert.True(t, p.Tick())
}

func TestTickResetsInterval(t *testing.T) {
	p := NewProfilerWithInterval(0)
	assert.True(t, p.Tick())

	p.interval = time.Hour
	assert.False(t, p.Tick())
}
