package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypewriter(t *testing.T) {
	tw := NewTypewriter("héllo", 30)
	assert.Equal(t, "", tw.Visible())

	tw.Advance(65)
	assert.Equal(t, "hé", tw.Visible())

	tw.Advance(25)
	assert.Equal(t, "hél", tw.Visible(), "leftover time carries over")
	assert.False(t, tw.Done())

	tw.Skip()
	assert.True(t, tw.Done())
	assert.Equal(t, "héllo", tw.Visible())

	tw.Advance(1000)
	assert.Equal(t, tw.Text(), tw.Visible())
}

func TestTypewriter_DefaultInterval(t *testing.T) {
	tw := NewTypewriter("abc", 0)
	tw.Advance(DefaultRuneInterval)
	assert.Equal(t, "a", tw.Visible())
}
