package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_TimeOfDay(t *testing.T) {
	tests := []struct {
		name      string
		worldTime float64
		hour      int
		want      TimeOfDay
	}{
		{name: "midnight", worldTime: 0, hour: 0, want: Night},
		{name: "dawn", worldTime: 6000, hour: 6, want: Morning},
		{name: "one o'clock", worldTime: 13000, hour: 13, want: Afternoon},
		{name: "just before evening", worldTime: 17999, hour: 17, want: Afternoon},
		{name: "evening", worldTime: 18000, hour: 18, want: Evening},
		{name: "late night", worldTime: 22000, hour: 22, want: Night},
		{name: "next day wraps", worldTime: 24000 + 7000, hour: 7, want: Morning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(NewClockOptions{DayLength: 24000, WorldTime: tt.worldTime})
			assert.Equal(t, tt.hour, c.Hour())
			assert.Equal(t, tt.want, c.TimeOfDay())
		})
	}
}

func TestClock_Tick(t *testing.T) {
	c := New(NewClockOptions{})
	assert.Equal(t, 1.0, c.Speed())

	assert.True(t, c.Tick())
	assert.Equal(t, 1.0, c.WorldTime())

	assert.True(t, c.TogglePause())
	assert.False(t, c.Tick())
	assert.Equal(t, 1.0, c.WorldTime(), "paused clocks do not advance")

	c.TogglePause()
	c.CycleSpeed()
	c.Tick()
	assert.Equal(t, 3.0, c.WorldTime())
}

func TestClock_CycleSpeed(t *testing.T) {
	c := New(NewClockOptions{})
	got := []float64{c.Speed()}
	for i := 0; i < 4; i++ {
		got = append(got, c.CycleSpeed())
	}
	assert.Equal(t, []float64{1, 2, 5, 0.5, 1}, got)
}

func TestParseTimeOfDay(t *testing.T) {
	for _, tod := range TimesOfDay {
		parsed, err := ParseTimeOfDay(tod.String())
		assert.NoError(t, err)
		assert.Equal(t, tod, parsed)
	}
	_, err := ParseTimeOfDay("noon")
	assert.Error(t, err)
}
