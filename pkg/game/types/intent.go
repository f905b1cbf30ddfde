package types

import "github.com/cbodonnell/tileworld/pkg/kinematic"

// Intent is the resolved action bundle for one tick. Attack and Interact are edge triggered:
// the game consumes them once per press.
type Intent struct {
	Up       bool `json:"up"`
	Down     bool `json:"down"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Attack   bool `json:"attack"`
	Interact bool `json:"interact"`
}

// Direction returns the movement vector the intent asks for. Opposite keys cancel out.
func (i Intent) Direction() kinematic.Vector {
	var v kinematic.Vector
	if i.Up {
		v.Y--
	}
	if i.Down {
		v.Y++
	}
	if i.Left {
		v.X--
	}
	if i.Right {
		v.X++
	}
	return v
}
