package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLog(t *testing.T) {
	l := NewEventLog(3)
	for i := 0; i < 5; i++ {
		l.Add(fmt.Sprintf("event %d", i), float64(i))
	}

	events := l.Events()
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "event 4", events[0].Text, "newest first")
	assert.Equal(t, "event 2", events[2].Text)
	assert.Equal(t, 4.0, events[0].WorldTime)

	events[0].Text = "changed"
	assert.Equal(t, "event 4", l.Events()[0].Text, "Events returns a copy")
}
