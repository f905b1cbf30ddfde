package clock

import "fmt"

// TimeOfDay is the coarse band of the simulated day.
type TimeOfDay uint8

const (
	Night TimeOfDay = iota
	Morning
	Afternoon
	Evening
)

func (t TimeOfDay) String() string {
	switch t {
	case Night:
		return "night"
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case Evening:
		return "evening"
	default:
		return "unknown"
	}
}

// ParseTimeOfDay parses a band name as produced by String.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch s {
	case "night":
		return Night, nil
	case "morning":
		return Morning, nil
	case "afternoon":
		return Afternoon, nil
	case "evening":
		return Evening, nil
	default:
		return Night, fmt.Errorf("unknown time of day: %q", s)
	}
}

// TimesOfDay lists every band in day order.
var TimesOfDay = []TimeOfDay{Night, Morning, Afternoon, Evening}

const (
	DefaultDayLength = 24000
)

// DefaultSpeeds are the selectable game speed multipliers.
var DefaultSpeeds = []float64{0.5, 1, 2, 5}

// Clock accumulates simulated world time. Each tick advances it by the current speed
// multiplier, not by wall-clock time.
type Clock struct {
	worldTime  float64
	dayLength  float64
	paused     bool
	speeds     []float64
	speedIndex int
}

type NewClockOptions struct {
	DayLength float64
	Speeds    []float64
	// SpeedIndex selects the starting speed. It defaults to the 1x entry when present.
	SpeedIndex *int
	WorldTime  float64
}

func New(opts NewClockOptions) *Clock {
	c := &Clock{
		worldTime: opts.WorldTime,
		dayLength: opts.DayLength,
		speeds:    opts.Speeds,
	}
	if c.dayLength <= 0 {
		c.dayLength = DefaultDayLength
	}
	if len(c.speeds) == 0 {
		c.speeds = DefaultSpeeds
	}
	if opts.SpeedIndex != nil && *opts.SpeedIndex >= 0 && *opts.SpeedIndex < len(c.speeds) {
		c.speedIndex = *opts.SpeedIndex
	} else {
		for i, s := range c.speeds {
			if s == 1 {
				c.speedIndex = i
				break
			}
		}
	}
	return c
}

// Tick advances world time by the current speed. Paused clocks do not advance.
// It reports whether time moved.
func (c *Clock) Tick() bool {
	if c.paused {
		return false
	}
	c.worldTime += c.Speed()
	return true
}

func (c *Clock) WorldTime() float64 {
	return c.worldTime
}

func (c *Clock) DayLength() float64 {
	return c.dayLength
}

// Hour returns the hour of the simulated day in [0, 24).
func (c *Clock) Hour() int {
	return HourOf(c.worldTime, c.dayLength)
}

// TimeOfDay returns the band the current hour falls in.
func (c *Clock) TimeOfDay() TimeOfDay {
	return BandOf(c.Hour())
}

// Day returns the number of whole days elapsed.
func (c *Clock) Day() int {
	return int(c.worldTime / c.dayLength)
}

// HourOf returns floor((worldTime mod dayLength) / (dayLength / 24)).
func HourOf(worldTime, dayLength float64) int {
	t := worldTime - float64(int(worldTime/dayLength))*dayLength
	if t < 0 {
		t += dayLength
	}
	hour := int(t / (dayLength / 24))
	if hour > 23 {
		hour = 23
	}
	return hour
}

// BandOf maps an hour to its band: before 6 is night, before 12 morning, before 18 afternoon,
// before 22 evening, and night after that.
func BandOf(hour int) TimeOfDay {
	switch {
	case hour < 6:
		return Night
	case hour < 12:
		return Morning
	case hour < 18:
		return Afternoon
	case hour < 22:
		return Evening
	default:
		return Night
	}
}

func (c *Clock) Paused() bool {
	return c.paused
}

// TogglePause flips the pause state and returns the new state.
func (c *Clock) TogglePause() bool {
	c.paused = !c.paused
	return c.paused
}

func (c *Clock) SetPaused(paused bool) {
	c.paused = paused
}

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 {
	return c.speeds[c.speedIndex]
}

// CycleSpeed moves to the next speed, wrapping to the first, and returns it.
func (c *Clock) CycleSpeed() float64 {
	c.speedIndex = (c.speedIndex + 1) % len(c.speeds)
	return c.Speed()
}
