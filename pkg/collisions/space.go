package collisions

import (
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"github.com/solarlune/resolv"
)

const (
	TagPlayer string = "player"
	TagEnemy  string = "enemy"
	TagAttack string = "attack"
)

// NewCollisionSpace returns a resolv space covering a screen with one cell per tile.
// Tile solidity stays on the grid; the space only holds moving entities and attack hitboxes.
func NewCollisionSpace(dims tilemap.Dimensions) *resolv.Space {
	return resolv.NewSpace(dims.PixelWidth, dims.PixelHeight, dims.TileWidth, dims.TileHeight)
}
